package usecase

// Messages resolves user-facing text from the locale catalog.
type Messages interface {
	T(key string, args ...interface{}) string
}
