// Package directurl rewrites share-style links from common cloud storage
// providers into URLs that can be streamed without interactive auth.
package directurl

import "strings"

// Normalize returns a directly downloadable form of raw. URLs from unknown
// hosts are returned unchanged. The function is pure and idempotent, so it
// is safe to normalize an already normalized URL.
func Normalize(raw string) string {
	u := strings.TrimSpace(raw)

	switch {
	case strings.Contains(u, "dropbox.com"):
		return normalizeDropbox(u)
	case strings.Contains(u, "drive.google.com"):
		return normalizeDrive(u)
	case strings.Contains(u, "pcloud.com"), strings.Contains(u, "u.pcloud.link"):
		return normalizePcloud(u)
	}
	return u
}

func normalizeDropbox(u string) string {
	u = strings.Replace(u, "?dl=0", "?dl=1", 1)
	u = strings.Replace(u, "www.dropbox.com", "dl.dropboxusercontent.com", 1)
	return u
}

func normalizeDrive(u string) string {
	if strings.Contains(u, "/file/d/") {
		rest := strings.SplitN(u, "/file/d/", 2)[1]
		id := strings.SplitN(rest, "/", 2)[0]
		return "https://drive.google.com/uc?export=download&id=" + id
	}
	if strings.Contains(u, "id=") {
		rest := strings.SplitN(u, "id=", 2)[1]
		id := strings.SplitN(rest, "&", 2)[0]
		return "https://drive.google.com/uc?export=download&id=" + id
	}
	return u
}

func normalizePcloud(u string) string {
	if strings.HasSuffix(u, "&download=1") {
		return u
	}
	return u + "&download=1"
}
