// Package connecturi parses and builds the nostrconnect:// bootstrap
// URI used to pair a signer with a client.
package connecturi

import (
	"errors"
	"net/url"
	"strings"
)

var ErrInvalidURI = errors.New("connecturi: invalid uri")

const scheme = "nostrconnect"

// URI is the parsed form of a nostrconnect:// bootstrap link.
type URI struct {
	Pubkey      string
	Relays      []string
	Secret      string
	Permissions []string
	Name        string
	URL         string
	Image       string
}

// Parse accepts a case-insensitive "nostrconnect://" scheme, preserves
// relay order, and ignores unknown query parameters.
func Parse(raw string) (*URI, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, ErrInvalidURI
	}
	if !strings.EqualFold(u.Scheme, scheme) {
		return nil, ErrInvalidURI
	}

	pubkey := u.Host
	if pubkey == "" {
		// Some parsers land the authority in Opaque for non-// schemes.
		pubkey = u.Opaque
	}
	if len(pubkey) != 64 {
		return nil, ErrInvalidURI
	}

	q := u.Query()
	relays := q["relay"]
	if len(relays) == 0 {
		return nil, ErrInvalidURI
	}

	secret := q.Get("secret")
	if secret == "" {
		return nil, ErrInvalidURI
	}

	out := &URI{
		Pubkey: strings.ToLower(pubkey),
		Relays: relays,
		Secret: secret,
		Name:   q.Get("name"),
		URL:    q.Get("url"),
		Image:  q.Get("image"),
	}
	if perms := q.Get("perms"); perms != "" {
		out.Permissions = strings.Split(perms, ",")
	}
	return out, nil
}

// Build renders u as a nostrconnect:// URI. It rejects a missing
// pubkey, relay list, or secret with ErrInvalidURI.
func Build(u *URI) (string, error) {
	if len(u.Pubkey) != 64 || len(u.Relays) == 0 || u.Secret == "" {
		return "", ErrInvalidURI
	}

	q := url.Values{}
	for _, r := range u.Relays {
		q.Add("relay", r)
	}
	q.Set("secret", u.Secret)
	if len(u.Permissions) > 0 {
		q.Set("perms", strings.Join(u.Permissions, ","))
	}
	if u.Name != "" {
		q.Set("name", u.Name)
	}
	if u.URL != "" {
		q.Set("url", u.URL)
	}
	if u.Image != "" {
		q.Set("image", u.Image)
	}

	return scheme + "://" + strings.ToLower(u.Pubkey) + "?" + q.Encode(), nil
}
