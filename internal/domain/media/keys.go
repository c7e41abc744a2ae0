package media

import (
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	CacheLongLived = "public, max-age=31536000, immutable"
	CacheStaging   = "public, max-age=86400"
)

var allowedExt = map[string]bool{"jpg": true, "jpeg": true, "png": true, "webp": true, "gif": true}

// pickExt returns the lower-cased extension of name when it is an allowed
// image type, and "jpg" otherwise.
func pickExt(name string) string {
	n := strings.ToLower(name)
	i := strings.LastIndex(n, ".")
	if i < 0 {
		return "jpg"
	}
	if ext := n[i+1:]; allowedExt[ext] {
		return ext
	}
	return "jpg"
}

func propertyKey(propertyID int64, filename string) string {
	return "properties/" + strconv.FormatInt(propertyID, 10) + "/" + uuid.NewString() + "." + pickExt(filename)
}

func stagingPrefix(userID int64) string {
	return "staging/" + strconv.FormatInt(userID, 10) + "/"
}

func profilePrefix(userID int64) string {
	return "profiles/" + strconv.FormatInt(userID, 10) + "/"
}

func stagingKey(userID int64, filename string) string {
	return stagingPrefix(userID) + uuid.NewString() + "." + pickExt(filename)
}

func profileKey(userID int64, filename string) string {
	return profilePrefix(userID) + uuid.NewString() + "." + pickExt(filename)
}

// finalKey maps a staged key to its stable destination. The same source
// always yields the same destination, so a retried finalize cannot create a
// second copy.
func finalKey(propertyID int64, srcKey string) string {
	return "properties/" + strconv.FormatInt(propertyID, 10) + "/" + path.Base(srcKey)
}

// PublicURL escapes the whole key, slashes included, as one path segment.
func PublicURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + url.PathEscape(key)
}

// KeyFromURL undoes PublicURL. Input that is not under base is treated as a
// bare key.
func KeyFromURL(base, raw string) (string, error) {
	rest := strings.TrimPrefix(raw, strings.TrimRight(base, "/"))
	rest = strings.TrimLeft(rest, "/")
	return url.PathUnescape(rest)
}

// propertyIDFromKey parses the id out of "properties/{id}/...".
func propertyIDFromKey(key string) (int64, bool) {
	rest, ok := strings.CutPrefix(key, "properties/")
	if !ok {
		return 0, false
	}
	idPart, _, ok := strings.Cut(rest, "/")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func unsafeKey(key string) bool {
	return key == "" || strings.Contains(key, "..") || strings.HasPrefix(key, "/") || strings.HasSuffix(key, "/")
}
