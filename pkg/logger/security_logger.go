package logger

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"netfusion-go/pkg/utils"
)

var (
	urlPattern    = regexp.MustCompile(`https?://[^\s"']+`)
	bearerPattern = regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9\-._~+/]+=*`)
	secretPattern = regexp.MustCompile(`(?i)(key|token|secret|password|code)([=:]\s*)[^\s&"']+`)
)

// SecurityLogger logs with OAuth tokens, API keys and site URLs masked
type SecurityLogger struct {
	*Logger
}

// NewSecurityLogger creates a new security-aware logger
func NewSecurityLogger(base *Logger) *SecurityLogger {
	if base == nil {
		base = GetLogger()
	}
	return &SecurityLogger{Logger: base}
}

// MaskURL keeps the host of a URL and replaces the rest with a short hash.
// Search Console domain properties ("sc-domain:example.com") keep their domain.
func (sl *SecurityLogger) MaskURL(rawURL string) string {
	if rawURL == "" {
		return ""
	}

	if domain, ok := strings.CutPrefix(rawURL, "sc-domain:"); ok {
		return fmt.Sprintf("sc-domain:%s#%s", domain, utils.FingerprintShort(rawURL))
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil || parsedURL.Host == "" {
		return "url#" + utils.FingerprintShort(rawURL)
	}

	return fmt.Sprintf("%s#%s", parsedURL.Host, utils.FingerprintShort(rawURL))
}

// MaskSecret replaces a credential with a stable short hash so two log lines
// can be correlated without revealing the value.
func (sl *SecurityLogger) MaskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	return "secret#" + utils.FingerprintShort(secret)
}

// MaskSensitiveData masks values whose key names suggest credentials or URLs
func (sl *SecurityLogger) MaskSensitiveData(data map[string]interface{}) map[string]interface{} {
	masked := make(map[string]interface{}, len(data))

	for key, value := range data {
		lowerKey := strings.ToLower(key)
		str, isString := value.(string)

		switch {
		case !isString:
			masked[key] = value
		case strings.Contains(lowerKey, "token"),
			strings.Contains(lowerKey, "secret"),
			strings.Contains(lowerKey, "password"),
			strings.Contains(lowerKey, "api_key"),
			strings.Contains(lowerKey, "apikey"),
			strings.Contains(lowerKey, "authorization"):
			masked[key] = sl.MaskSecret(str)
		case strings.Contains(lowerKey, "url"), strings.Contains(lowerKey, "site"):
			masked[key] = sl.MaskURL(str)
		default:
			masked[key] = value
		}
	}

	return masked
}

// MaskLogMessage masks URLs, bearer tokens and key=value secrets inside free text
func (sl *SecurityLogger) MaskLogMessage(message string) string {
	masked := urlPattern.ReplaceAllStringFunc(message, sl.MaskURL)
	masked = bearerPattern.ReplaceAllString(masked, "Bearer ***")
	masked = secretPattern.ReplaceAllString(masked, "${1}${2}***")
	return masked
}

// SafeInfo logs info with automatic sensitive data masking
func (sl *SecurityLogger) SafeInfo(msg string, fields map[string]interface{}) {
	sl.with(fields).Info(sl.MaskLogMessage(msg))
}

// SafeWarn logs warning with automatic sensitive data masking
func (sl *SecurityLogger) SafeWarn(msg string, fields map[string]interface{}) {
	sl.with(fields).Warn(sl.MaskLogMessage(msg))
}

// SafeDebug logs debug with automatic sensitive data masking
func (sl *SecurityLogger) SafeDebug(msg string, fields map[string]interface{}) {
	sl.with(fields).Debug(sl.MaskLogMessage(msg))
}

// SafeError logs error with automatic sensitive data masking
func (sl *SecurityLogger) SafeError(msg string, err error, fields map[string]interface{}) {
	l := sl.with(fields)
	if err != nil {
		l = l.WithField("error", sl.MaskLogMessage(err.Error()))
	}
	l.Error(sl.MaskLogMessage(msg))
}

func (sl *SecurityLogger) with(fields map[string]interface{}) *Logger {
	if len(fields) == 0 {
		return sl.Logger
	}
	return sl.Logger.WithFields(sl.MaskSensitiveData(fields))
}

var (
	securityLoggerInstance *SecurityLogger
	securityOnce           sync.Once
)

// GetSecurityLogger returns a singleton security logger over the global logger
func GetSecurityLogger() *SecurityLogger {
	securityOnce.Do(func() {
		securityLoggerInstance = NewSecurityLogger(GetLogger())
	})
	return securityLoggerInstance
}
