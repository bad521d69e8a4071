package execution

import "regexp"

// 捕获到的外部输出在写日志或入库前先抹掉敏感字段的取值。
var scrubRules = []struct {
	pattern *regexp.Regexp
	replace string
}{
	{regexp.MustCompile(`(?i)api[_-]?key["']?\s*[:=]\s*["']?[^"'\s]+`), `api_key="***"`},
	{regexp.MustCompile(`(?i)secret["']?\s*[:=]\s*["']?[^"'\s]+`), `secret="***"`},
	{regexp.MustCompile(`(?i)password["']?\s*[:=]\s*["']?[^"'\s]+`), `password="***"`},
	{regexp.MustCompile(`(?i)token["']?\s*[:=]\s*["']?[^"'\s]+`), `token="***"`},
}

// ScrubSecrets 把输出中形如 key=value 的敏感字段替换为固定掩码。
func ScrubSecrets(output string) string {
	if output == "" {
		return output
	}
	scrubbed := output
	for _, rule := range scrubRules {
		scrubbed = rule.pattern.ReplaceAllString(scrubbed, rule.replace)
	}
	return scrubbed
}
