package service

import (
	"regexp"
	"strings"

	"github.com/arjin21/omerpubgbagimliligi/internal/model"
)

var mentionPattern = regexp.MustCompile(`@([A-Za-z0-9_.]+)`)

// ExtractMentions derives the mentioned usernames from a text body. It is
// called by the message service before persistence; nothing fires on save.
func ExtractMentions(text string) []string {
	matches := mentionPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	mentions := make([]string, 0, len(matches))
	for _, m := range matches {
		name := m[1]
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		mentions = append(mentions, name)
	}
	return mentions
}

// ValidateContent checks the tagged-union shape of outbound content: the
// type tag must be known, text must be present and bounded for text
// messages, and media types must carry an attachment.
func ValidateContent(c model.Content) error {
	switch c.Type {
	case model.ContentText:
		if strings.TrimSpace(c.Text) == "" && !c.HasMedia() {
			return ErrEmptyContent
		}
		if len(c.Text) > model.MaxTextLength {
			return ErrTextTooLong
		}
	case model.ContentImage, model.ContentVideo, model.ContentAudio, model.ContentFile:
		if !c.HasMedia() {
			return ErrEmptyContent
		}
	case model.ContentLocation:
		if c.Location == nil {
			return ErrEmptyContent
		}
	case model.ContentContact:
		if c.Contact == nil || c.Contact.Name == "" {
			return ErrEmptyContent
		}
	default:
		return ErrInvalidContentType
	}
	return nil
}
