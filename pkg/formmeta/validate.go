package formmeta

import "net/url"

// IsValidURL reports whether uri is a well-formed absolute URL with an
// http, https, or ftp scheme and a host. Used to decide whether a media
// value can be resolved into a local attachment.
func IsValidURL(uri string) bool {
	u, err := url.Parse(uri)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "http", "https", "ftp", "ftps":
	default:
		return false
	}
	return u.Host != ""
}
