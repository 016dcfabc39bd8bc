package model

// 会话在持久化存储中使用的键名。
const (
	KeyAuthToken       = "authToken"
	KeyUsername        = "username"
	KeyAccountID       = "accountId"
	KeyMaskedAccountID = "maskedAccountId"
)

// SessionKeys 按固定顺序列出会话的四个存储键。
var SessionKeys = []string{KeyAuthToken, KeyUsername, KeyAccountID, KeyMaskedAccountID}

// Session 是当前登录用户的身份与凭证。
// 四个字段要么全部非空（已认证），要么会话不存在。
type Session struct {
	Username        string `json:"username"`
	Token           string `json:"token"`
	AccountID       string `json:"accountId"`
	MaskedAccountID string `json:"maskedAccountId"`
}

// Complete 报告四个字段是否都非空。
func (s Session) Complete() bool {
	return s.Username != "" && s.Token != "" && s.AccountID != "" && s.MaskedAccountID != ""
}

// Record 将会话展开为存储键值对。
func (s Session) Record() map[string]string {
	return map[string]string{
		KeyAuthToken:       s.Token,
		KeyUsername:        s.Username,
		KeyAccountID:       s.AccountID,
		KeyMaskedAccountID: s.MaskedAccountID,
	}
}

// SessionFromRecord 从存储键值对还原会话，缺失的键保持为空字符串。
func SessionFromRecord(rec map[string]string) Session {
	return Session{
		Username:        rec[KeyUsername],
		Token:           rec[KeyAuthToken],
		AccountID:       rec[KeyAccountID],
		MaskedAccountID: rec[KeyMaskedAccountID],
	}
}
