package shortener

import "strings"

const (
	linkKeyPrefix  = "link:"
	userKeyPrefix  = "user:"
	userLinkSuffix = ":links"
)

// linkKey addresses the hash holding one owner's record for code.
func linkKey(ownerID string, code Code) string {
	return linkKeyPrefix + ownerID + ":" + string(code)
}

// ownerLinksKey addresses the reverse index of codes owned by ownerID.
func ownerLinksKey(ownerID string) string {
	return userKeyPrefix + ownerID + userLinkSuffix
}

// codePattern matches every owner's record for code.
func codePattern(code Code) string {
	return linkKeyPrefix + "*:" + string(code)
}

// allLinksPattern matches every link record.
func allLinksPattern() string {
	return linkKeyPrefix + "*"
}

// splitLinkKey recovers owner and code from a link key.
func splitLinkKey(key string) (ownerID string, code Code, ok bool) {
	rest, found := strings.CutPrefix(key, linkKeyPrefix)
	if !found {
		return "", "", false
	}

	owner, c, found := strings.Cut(rest, ":")
	if !found || owner == "" || c == "" {
		return "", "", false
	}

	return owner, Code(c), true
}
