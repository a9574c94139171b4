package config

// SetUserHomeDirForTest overrides the home directory resolver used to find
// ~/.reqmatrix/config.json. It returns a restore function.
func SetUserHomeDirForTest(fn func() (string, error)) func() {
	orig := userHomeDir
	userHomeDir = fn
	return func() {
		userHomeDir = orig
	}
}
