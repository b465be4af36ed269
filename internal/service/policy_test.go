package service

import (
	"testing"

	"github.com/arjin21/omerpubgbagimliligi/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestExtractMentions(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"none", "plain text without handles", nil},
		{"single", "hey @alice, lunch?", []string{"alice"}},
		{"multiple", "@alice @bob.smith check this", []string{"alice", "bob.smith"}},
		{"deduped", "@alice and again @alice", []string{"alice"}},
		{"underscore and digits", "ping @user_42", []string{"user_42"}},
		{"bare at sign", "price @ 10", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractMentions(tt.text))
		})
	}
}

func TestValidateContent(t *testing.T) {
	longText := make([]byte, model.MaxTextLength+1)
	for i := range longText {
		longText[i] = 'x'
	}

	tests := []struct {
		name    string
		content model.Content
		wantErr error
	}{
		{"text ok", model.Content{Type: model.ContentText, Text: "hello"}, nil},
		{"text blank", model.Content{Type: model.ContentText, Text: "  \t "}, ErrEmptyContent},
		{"text too long", model.Content{Type: model.ContentText, Text: string(longText)}, ErrTextTooLong},
		{"text with attachment only", model.Content{Type: model.ContentText,
			Media: &model.MediaPayload{MediaID: "m-1"}}, nil},
		{"image without media", model.Content{Type: model.ContentImage}, ErrEmptyContent},
		{"image with media", model.Content{Type: model.ContentImage,
			Media: &model.MediaPayload{MediaID: "m-1"}}, nil},
		{"file with url only", model.Content{Type: model.ContentFile,
			Media: &model.MediaPayload{URL: "https://cdn/x"}}, nil},
		{"location without payload", model.Content{Type: model.ContentLocation}, ErrEmptyContent},
		{"location ok", model.Content{Type: model.ContentLocation,
			Location: &model.LocationPayload{Latitude: 41, Longitude: 29}}, nil},
		{"contact without name", model.Content{Type: model.ContentContact,
			Contact: &model.ContactPayload{Phone: "555"}}, ErrEmptyContent},
		{"contact ok", model.Content{Type: model.ContentContact,
			Contact: &model.ContactPayload{Name: "Bob", Phone: "555"}}, nil},
		{"unknown type", model.Content{Type: "sticker"}, ErrInvalidContentType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateContent(tt.content)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
