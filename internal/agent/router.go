package agent

import "strings"

// replyKind 表示一条用户消息应走的生成路径。
type replyKind int

const (
	kindAgent replyKind = iota
	kindRoadmap
	kindCode
)

// 触发词直接短路到专用 prompt，跳过完整的工具编排循环。
var (
	roadmapTriggers = []string{"roadmap", "learning path", "step by step", "plan", "timeline"}
	codeTriggers    = []string{"code", "program", "function", "algorithm", "script", "python", "javascript", "java"}
)

// classify 根据触发词选择生成路径，roadmap 优先于 code。
func classify(message string) replyKind {
	lower := strings.ToLower(message)
	for _, t := range roadmapTriggers {
		if strings.Contains(lower, t) {
			return kindRoadmap
		}
	}
	for _, t := range codeTriggers {
		if strings.Contains(lower, t) {
			return kindCode
		}
	}
	return kindAgent
}
