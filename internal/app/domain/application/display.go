package application

import (
	"bytes"
	"encoding/json"
	"reflect"
)

// Display nests the presentation configuration of an application. The
// lifecycle logic treats it as an atomic value: it is applied and compared as
// a whole, never field by field.
type Display struct {
	Twake Surface `json:"twake"`
}

// Surface describes where and how an application surfaces inside the client.
type Surface struct {
	Tab           *IframeBinding `json:"tab,omitempty"`
	Standalone    *IframeBinding `json:"standalone,omitempty"`
	Configuration []string       `json:"configuration,omitempty"`
	Direct        *DirectBinding `json:"direct,omitempty"`
	Files         *FilesModule   `json:"files,omitempty"`
	Chat          *ChatModule    `json:"chat,omitempty"`
}

// IframeBinding attaches a surface to an iframe URL. A binding without a URL
// serializes as the boolean true, matching the legacy wire format.
type IframeBinding struct {
	URL string
}

func (b IframeBinding) MarshalJSON() ([]byte, error) {
	if b.URL == "" {
		return []byte("true"), nil
	}
	return json.Marshal(struct {
		URL string `json:"url"`
	}{URL: b.URL})
}

func (b *IframeBinding) UnmarshalJSON(data []byte) error {
	var flag bool
	if err := json.Unmarshal(data, &flag); err == nil {
		*b = IframeBinding{}
		return nil
	}
	var obj struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	b.URL = obj.URL
	return nil
}

// DirectBinding surfaces an application in direct/member conversations,
// carrying its display name and icon. An empty binding serializes as true.
type DirectBinding struct {
	Name string
	Icon string
}

func (b DirectBinding) MarshalJSON() ([]byte, error) {
	if b.Name == "" && b.Icon == "" {
		return []byte("true"), nil
	}
	return json.Marshal(struct {
		Name string `json:"name"`
		Icon string `json:"icon,omitempty"`
	}{Name: b.Name, Icon: b.Icon})
}

func (b *DirectBinding) UnmarshalJSON(data []byte) error {
	var flag bool
	if err := json.Unmarshal(data, &flag); err == nil {
		*b = DirectBinding{}
		return nil
	}
	var obj struct {
		Name string `json:"name"`
		Icon string `json:"icon"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	b.Name = obj.Name
	b.Icon = obj.Icon
	return nil
}

// EmptyFile is a template offered when creating a new file from the
// application.
type EmptyFile struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Name     string `json:"name"`
}

// FilesModule describes the file preview/edit integration of an application.
type FilesModule struct {
	PreviewURL string      `json:"preview_url"`
	EditURL    string      `json:"edit_url"`
	Extensions []string    `json:"extensions"`
	EmptyFiles []EmptyFile `json:"empty_files,omitempty"`
}

// ChatInput binds an icon into the message composer.
type ChatInput struct {
	Icon string `json:"icon,omitempty"`
}

// ChatAction is an action offered on messages.
type ChatAction struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// ChatModule describes the messaging integration of an application.
type ChatModule struct {
	Input    *ChatInput   `json:"input,omitempty"`
	Commands []string     `json:"commands,omitempty"`
	Actions  []ChatAction `json:"actions,omitempty"`
}

// Clone returns a deep copy of the display configuration.
func (d *Display) Clone() *Display {
	if d == nil {
		return nil
	}
	out := *d
	if d.Twake.Tab != nil {
		tab := *d.Twake.Tab
		out.Twake.Tab = &tab
	}
	if d.Twake.Standalone != nil {
		standalone := *d.Twake.Standalone
		out.Twake.Standalone = &standalone
	}
	out.Twake.Configuration = cloneStrings(d.Twake.Configuration)
	if d.Twake.Direct != nil {
		direct := *d.Twake.Direct
		out.Twake.Direct = &direct
	}
	if d.Twake.Files != nil {
		files := *d.Twake.Files
		files.Extensions = cloneStrings(d.Twake.Files.Extensions)
		files.EmptyFiles = append([]EmptyFile(nil), d.Twake.Files.EmptyFiles...)
		out.Twake.Files = &files
	}
	if d.Twake.Chat != nil {
		chat := *d.Twake.Chat
		if d.Twake.Chat.Input != nil {
			input := *d.Twake.Chat.Input
			chat.Input = &input
		}
		chat.Commands = cloneStrings(d.Twake.Chat.Commands)
		chat.Actions = append([]ChatAction(nil), d.Twake.Chat.Actions...)
		out.Twake.Chat = &chat
	}
	return &out
}

// EqualDisplay compares two display configurations as atomic values. The
// comparison goes through the canonical JSON form so empty and absent
// collections are not treated as a difference.
func EqualDisplay(a, b *Display) bool {
	if a == nil || b == nil {
		return a == b
	}
	if reflect.DeepEqual(*a, *b) {
		return true
	}
	aJSON, errA := json.Marshal(a)
	bJSON, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(aJSON, bJSON)
}
