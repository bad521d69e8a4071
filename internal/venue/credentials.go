package venue

import "fmt"

// CredentialError 指出某个交易所缺少哪个凭证字段。
type CredentialError struct {
	Venue string
	Field string
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("venue: %s 缺少凭证字段 %s", e.Venue, e.Field)
}

// ValidateCredentials 确认交易所档案携带其 API 所要求的全部凭证：
// 所有交易所都需要 api_key 与 api_secret，要求交易口令的交易所
// 还需要 api_password。返回第一个缺失的字段。
func ValidateCredentials(profile Profile) error {
	if profile.Credentials.APIKey == "" {
		return &CredentialError{Venue: profile.Name, Field: "api_key"}
	}
	if profile.Credentials.APISecret == "" {
		return &CredentialError{Venue: profile.Name, Field: "api_secret"}
	}
	if profile.RequiresPassphrase && profile.Credentials.APIPass == "" {
		return &CredentialError{Venue: profile.Name, Field: "api_password"}
	}
	return nil
}
