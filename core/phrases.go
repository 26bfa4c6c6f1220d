package orchestration

import "strings"

// Phrases is a set of trigger phrases matched by substring against a
// recognized utterance.
type Phrases []string

var DefaultExitPhrases = Phrases{
	"再见小鑫", "再见小心", "再见小新", "再见小星",
	"小鑫再见", "小心再见", "小新再见",
	"退出对话", "结束对话", "停止对话", "关闭对话",
	"停止语音", "关闭语音",
	"byebye小鑫", "byebye小心", "byebye小新", "byebye小星",
}

var DefaultWakePhrases = Phrases{
	"你好小鑫", "你好小心", "你好小新", "你好小星", "你好小行", "你好小兴", "你好小信", "你好小芯",
	"小鑫你好", "小心你好", "小新你好",
	"小鑫小鑫", "小心小心", "小新小新",
}

var punctuationReplacer = strings.NewReplacer(
	"，", "", ",", "", "。", "", ".", "",
	"！", "", "!", "", "？", "", "?", "", "、", "",
	" ", "", "\t", "", "　", "",
)

// Normalize strips punctuation and whitespace and lower-cases text.
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	return strings.ToLower(punctuationReplacer.Replace(strings.TrimSpace(text)))
}

// Match reports whether text contains any of the phrases, either as heard or
// after normalization.
func (p Phrases) Match(text string) bool {
	raw := strings.ToLower(strings.TrimSpace(text))
	if raw == "" {
		return false
	}
	normalized := Normalize(raw)

	for _, phrase := range p {
		phrase = Normalize(phrase)
		if phrase == "" {
			continue
		}
		if strings.Contains(normalized, phrase) || strings.Contains(raw, phrase) {
			return true
		}
	}
	return false
}
