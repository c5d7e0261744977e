//go:build !unix

package splice

// defaultLocker is a no-op where flock is unavailable. Only one process may
// write a document on these platforms.
func defaultLocker() Locker {
	return NopLocker{}
}
