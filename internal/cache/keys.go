package cache

import "fmt"

func PublicSettingsKey(subdomain, lang string) string {
	return fmt.Sprintf("settings:%s:%s", subdomain, lang)
}

func RateLimitKey(client string) string {
	return fmt.Sprintf("ratelimit:%s", client)
}
