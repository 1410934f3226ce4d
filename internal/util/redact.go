package util

import "regexp"

var (
	keyValuePattern = regexp.MustCompile(`(?i)(api_key|apikey|secret|token|password|access_key|private_key)\s*[:=]\s*([^\s"']+)`)
	jsonKeyPattern  = regexp.MustCompile(`(?i)("[a-z_]*(?:privatekey|private_key|secret|token|password|apikey|api_key)"\s*:\s*)"[^"]*"`)
	bearerPattern   = regexp.MustCompile(`(?i)(bearer\s+)[a-z0-9._~+/=-]+`)
	privateKeyBlock = regexp.MustCompile(`(?is)-----BEGIN [A-Z ]*PRIVATE KEY-----.*?-----END [A-Z ]*PRIVATE KEY-----`)
	jwtPattern      = regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+\.?[a-zA-Z0-9_-]*`)
)

// RedactSecrets removes likely secrets from text before it is logged. Signer
// private keys in transaction payloads are the common case.
func RedactSecrets(input string) string {
	out := jsonKeyPattern.ReplaceAllString(input, `$1"[REDACTED]"`)
	out = keyValuePattern.ReplaceAllString(out, `$1=[REDACTED]`)
	out = bearerPattern.ReplaceAllString(out, `${1}[REDACTED]`)
	out = privateKeyBlock.ReplaceAllString(out, "[REDACTED PRIVATE KEY]")
	out = jwtPattern.ReplaceAllString(out, "[REDACTED JWT]")
	return out
}
