package i18n

// In preparation for internationalization
// import "github.com/nicksnyder/go-i18n/v2/i18n"

// T translates a key to a string. The first parameter identifies
// a message to translate. The second parameter is the default
// string to return if the key is not found.
func T(_ string, defaultValue string) string {
	return defaultValue
}
