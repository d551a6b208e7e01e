package story

// Role 会话消息角色
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	// RoleToolAudit 内部审计角色,记录本轮执行过的工具。
	// 回传给调用方时保留,发送给 LLM 前必须剔除。
	RoleToolAudit Role = "tool-audit"
)

// Message 会话历史中的一条消息
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// WindowHistory 截取最近 max 条消息,max <= 0 时返回原切片
func WindowHistory(history []Message, max int) []Message {
	if max <= 0 || len(history) <= max {
		return history
	}
	return history[len(history)-max:]
}

// HistoryForLLM 过滤审计消息,LLM 接口不接受 tool-audit 角色
func HistoryForLLM(history []Message) []Message {
	out := make([]Message, 0, len(history))
	for _, m := range history {
		if m.Role == RoleToolAudit {
			continue
		}
		out = append(out, m)
	}
	return out
}
