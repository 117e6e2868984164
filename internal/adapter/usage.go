package adapter

import (
	"github.com/akolanti/DocAssist/internal/api"
	"github.com/akolanti/DocAssist/internal/domain/chatModel"
)

// EstimateTokens approximates a message's token count as chars/4, at least 1.
func EstimateTokens(text string) int {
	return max(len([]rune(text))/4, 1)
}

// ToUsageResponse reports every session, deleted ones included.
func ToUsageResponse(sessions []chatModel.ChatSession, costPer1k float64) api.UsageResponse {
	res := api.UsageResponse{Sessions: make([]api.SessionUsage, 0, len(sessions))}
	for _, s := range sessions {
		usage := api.SessionUsage{
			UserId:       s.UserId,
			SessionId:    s.SessionId,
			State:        string(s.State),
			MessageCount: len(s.Messages),
		}
		for _, m := range s.Messages {
			usage.EstimatedTokens += EstimateTokens(m.Message)
		}
		res.TotalMessages += usage.MessageCount
		res.TotalTokens += usage.EstimatedTokens
		res.Sessions = append(res.Sessions, usage)
	}
	res.TotalSessions = len(res.Sessions)
	res.EstimatedCostUSD = float64(res.TotalTokens) / 1000 * costPer1k
	return res
}
