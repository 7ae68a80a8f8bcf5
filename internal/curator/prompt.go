package curator

import (
	"fmt"
	"strings"
)

// Separator is the rule line the model is instructed to place between news
// items. Segmentation splits on this exact literal.
const Separator = "───────────────────"

// promptTemplate instructs the model to report news for a topic in Slack
// mrkdwn, one item per separator-delimited block, with a closing trend
// analysis. URLs are excluded from the body because sources are attached
// from grounding metadata after segmentation.
const promptTemplate = `「%s」に関する過去24時間以内のニュースを検索し、Slack mrkdwn形式で報告してください。

重要: 前置きや挨拶なしで、ニュース内容のみを直接出力してください。

# 出力形式（以下のフォーマットを厳守）

:newspaper: *1. タイトル名*
> 概要を1-2文で簡潔に説明

:pushpin: ステータス: 発表 / リリース / 開発中 等
:bulb: キーポイント: 重要な特徴や注目点を1文で

` + Separator + `

:newspaper: *2. 次のタイトル名*
（同様のフォーマットで続ける）

` + Separator + `

:chart_with_upwards_trend: *トレンド分析*
これらのニュースから見える全体的なトレンドを2-3文で分析。

# 注意事項
- URLは含めないこと（参照元は自動追加されます）
- 各ニュースは上記フォーマットで統一し、───で区切る
- 絵文字は指定のものを使用
- Markdown の ## や ** は使わず、Slack mrkdwn の *太字* を使用
- 過去24時間以内のニュースのみ対象
- 情報がない場合は「該当するニュースは見つかりませんでした」と報告
- 検索で見つかった情報は可能な限り個別のニュースとして取り上げること（同じ情報の重複は除く）
- 最低でも3件以上のニュースを報告するよう努めること
`

// PromptConfig is the immutable prompt for one run: the template with its
// single topic variable, and the separator the template promises between
// items. Constructed once and passed explicitly; there is no module-level
// mutable prompt state.
type PromptConfig struct {
	Template  string
	Separator string
}

func DefaultPromptConfig() PromptConfig {
	return PromptConfig{Template: promptTemplate, Separator: Separator}
}

// Build renders the prompt for a topic. Previously reported identifiers
// (titles or URLs, depending on the deployment's exclusion mode) are folded
// in as a negative constraint list, duplicates collapsed.
func (p PromptConfig) Build(topic string, exclusions []string) string {
	prompt := fmt.Sprintf(p.Template, topic)

	exclusions = dedupe(exclusions)
	if len(exclusions) == 0 {
		return prompt
	}

	var b strings.Builder
	b.WriteString(prompt)
	b.WriteString("\n# 除外リスト\n以下は既に報告済みのため、今回の報告から除外してください:\n")
	for _, ex := range exclusions {
		b.WriteString("- ")
		b.WriteString(ex)
		b.WriteString("\n")
	}
	return b.String()
}

func dedupe(values []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
