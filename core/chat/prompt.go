package chat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/koscakluka/ema-dashboard/core/llms"
	"github.com/koscakluka/ema-dashboard/core/telemetry"
)

const systemPromptTemplate = `你是一个专业的能源管理AI助手，负责帮助用户监控和分析能源站点数据。

数据更新时间：%s
当前时刻各个站点的监测数据如下：
%s

你的职责包括：
1. 回答用户关于各站点运行状态、功率、发电量、盈利等数据的问题
2. 提供数据分析和优化建议
3. 解释异常情况和告警
4. 协助用户进行能源调度决策

请用简洁专业的中文回答用户问题。如果涉及具体数据，请准确引用上述监测数据。`

// SystemPrompt builds the instruction that grounds the assistant on the
// given snapshot.
func SystemPrompt(siteData telemetry.Snapshot, lastUpdate string) (string, error) {
	buf := bytes.Buffer{}
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(siteData); err != nil {
		return "", fmt.Errorf("failed to encode site data: %w", err)
	}

	return fmt.Sprintf(systemPromptTemplate, lastUpdate, strings.TrimSuffix(buf.String(), "\n")), nil
}

// PromptMessages prepends the system prompt to the request history. Messages
// with unknown roles or no content are dropped.
func PromptMessages(request Request) ([]llms.Message, error) {
	systemPrompt, err := SystemPrompt(request.SiteData, request.LastUpdate)
	if err != nil {
		return nil, err
	}

	messages := make([]llms.Message, 0, len(request.Messages)+1)
	messages = append(messages, llms.Message{Role: llms.RoleSystem, Content: systemPrompt})
	for _, message := range request.Messages {
		if message.Content == "" || (message.Role != llms.RoleUser && message.Role != llms.RoleAssistant) {
			continue
		}
		messages = append(messages, message)
	}
	return messages, nil
}
