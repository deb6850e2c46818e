package agent

import (
	"testing"

	"neurosync-go/internal/config"

	"github.com/tmc/langchaingo/tools"
)

func TestBuildTools(t *testing.T) {
	cases := []struct {
		name string
		cfg  config.AgentToolsConfig
		want int
	}{
		{"全部关闭", config.AgentToolsConfig{}, 0},
		{"仅计算器", config.AgentToolsConfig{Calculator: true}, 1},
		{"全部开启", config.AgentToolsConfig{WebSearch: true, Wikipedia: true, Calculator: true}, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := buildTools(tc.cfg)
			if err != nil {
				t.Fatalf("buildTools 失败: %v", err)
			}
			if len(got) != tc.want {
				t.Errorf("len(tools) = %d, want %d", len(got), tc.want)
			}
		})
	}
}

func TestBuildToolsCalculator(t *testing.T) {
	agentTools, err := buildTools(config.AgentToolsConfig{Calculator: true})
	if err != nil {
		t.Fatalf("buildTools 失败: %v", err)
	}
	if _, ok := agentTools[0].(tools.Calculator); !ok {
		t.Errorf("tools[0] 类型 = %T, want tools.Calculator", agentTools[0])
	}
}
