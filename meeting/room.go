package meeting

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"meetgate/config"
)

const (
	roomNameMin = 3
	roomNameMax = 50
)

var (
	ErrInvalidRoomName = errors.New("invalid room name")

	// words of letters, digits, CJK, '-' or '_', separated by single spaces
	roomNameChars  = regexp.MustCompile(`^[\w\-\x{4e00}-\x{9fa5}]+(?: [\w\-\x{4e00}-\x{9fa5}]+)*$`)
	forbiddenWords = []string{"admin", "root", "system", "test"}
)

// RoomURLBuilder turns a room name into the address the participant's
// browser loads
type RoomURLBuilder interface {
	BuildJoinURL(room string) string
}

// JitsiBuilder builds https://<domain>/<room> URLs. Options end up in the URL
// fragment as config.<key>=<value> pairs.
type JitsiBuilder struct {
	Domain  string
	Options map[string]interface{}
}

func (b *JitsiBuilder) BuildJoinURL(room string) string {
	return BuildURL(b.Domain, room, b.Options)
}

func BuildURL(domain, room string, options map[string]interface{}) string {
	u := "https://" + domain + "/" + url.QueryEscape(room)
	if len(options) == 0 {
		return u
	}
	keys := make([]string, 0, len(options))
	for key := range options {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	params := make([]string, 0, len(keys))
	for _, key := range keys {
		switch v := options[key].(type) {
		case bool:
			if v {
				params = append(params, key+"=true")
			} else {
				params = append(params, key+"=false")
			}
		default:
			params = append(params, key+"="+url.QueryEscape(fmt.Sprint(v)))
		}
	}
	return u + "#config." + strings.Join(params, "&config.")
}

// ValidateRoomName returns the trimmed name, or an error wrapping
// ErrInvalidRoomName that says which rule failed
func ValidateRoomName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n < roomNameMin || n > roomNameMax {
		return "", fmt.Errorf("%w: length must be between %d and %d characters", ErrInvalidRoomName, roomNameMin, roomNameMax)
	}
	if !roomNameChars.MatchString(name) {
		return "", fmt.Errorf("%w: only letters, digits, Chinese characters, '-', '_' and single spaces are allowed", ErrInvalidRoomName)
	}
	lower := strings.ToLower(name)
	for _, word := range forbiddenWords {
		if strings.Contains(lower, word) {
			return "", fmt.Errorf("%w: contains forbidden word %q", ErrInvalidRoomName, word)
		}
	}
	return name, nil
}

// CheckRooms validates the configured room names at startup
func CheckRooms(cfg *config.MeetingConfig) error {
	for _, name := range []string{cfg.RoomNameZH, cfg.RoomNameEN} {
		if _, err := ValidateRoomName(name); err != nil {
			return fmt.Errorf("room %q: %w", name, err)
		}
	}
	return nil
}

func ShareLink(baseURL, room string) string {
	return strings.TrimRight(baseURL, "/") + "/meeting?room=" + url.QueryEscape(room)
}
