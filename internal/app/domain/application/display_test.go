package application

import (
	"encoding/json"
	"testing"
)

func TestIframeBindingMarshal(t *testing.T) {
	data, err := json.Marshal(IframeBinding{})
	if err != nil {
		t.Fatalf("marshal empty binding: %v", err)
	}
	if string(data) != "true" {
		t.Fatalf("empty binding = %s, want true", data)
	}

	data, err = json.Marshal(IframeBinding{URL: "https://tab.example"})
	if err != nil {
		t.Fatalf("marshal binding: %v", err)
	}
	if string(data) != `{"url":"https://tab.example"}` {
		t.Fatalf("binding = %s", data)
	}
}

func TestIframeBindingUnmarshal(t *testing.T) {
	var b IframeBinding
	if err := json.Unmarshal([]byte("true"), &b); err != nil {
		t.Fatalf("unmarshal boolean: %v", err)
	}
	if b.URL != "" {
		t.Fatalf("URL = %q, want empty", b.URL)
	}

	if err := json.Unmarshal([]byte(`{"url":"https://tab.example"}`), &b); err != nil {
		t.Fatalf("unmarshal object: %v", err)
	}
	if b.URL != "https://tab.example" {
		t.Fatalf("URL = %q", b.URL)
	}

	if err := json.Unmarshal([]byte(`"nope"`), &b); err == nil {
		t.Fatal("expected error for string binding")
	}
}

func TestDirectBindingMarshal(t *testing.T) {
	data, err := json.Marshal(DirectBinding{})
	if err != nil {
		t.Fatalf("marshal empty binding: %v", err)
	}
	if string(data) != "true" {
		t.Fatalf("empty binding = %s, want true", data)
	}

	data, err = json.Marshal(DirectBinding{Name: "Drive", Icon: "icon.png"})
	if err != nil {
		t.Fatalf("marshal binding: %v", err)
	}
	if string(data) != `{"name":"Drive","icon":"icon.png"}` {
		t.Fatalf("binding = %s", data)
	}
}

func TestDisplayCloneIsDeep(t *testing.T) {
	original := &Display{Twake: Surface{
		Tab:           &IframeBinding{URL: "https://tab.example"},
		Configuration: []string{"global", "channel"},
		Files:         &FilesModule{Extensions: []string{"doc"}},
		Chat:          &ChatModule{Input: &ChatInput{Icon: "icon.png"}, Commands: []string{"/poll"}},
	}}

	clone := original.Clone()
	clone.Twake.Tab.URL = "mutated"
	clone.Twake.Configuration[0] = "mutated"
	clone.Twake.Files.Extensions[0] = "mutated"
	clone.Twake.Chat.Input.Icon = "mutated"
	clone.Twake.Chat.Commands[0] = "mutated"

	if original.Twake.Tab.URL != "https://tab.example" {
		t.Fatal("clone shares the tab binding")
	}
	if original.Twake.Configuration[0] != "global" {
		t.Fatal("clone shares the configuration slice")
	}
	if original.Twake.Files.Extensions[0] != "doc" {
		t.Fatal("clone shares the extensions slice")
	}
	if original.Twake.Chat.Input.Icon != "icon.png" {
		t.Fatal("clone shares the chat input")
	}
	if original.Twake.Chat.Commands[0] != "/poll" {
		t.Fatal("clone shares the commands slice")
	}
}

func TestEqualDisplay(t *testing.T) {
	a := &Display{Twake: Surface{Configuration: []string{"global"}}}
	b := &Display{Twake: Surface{Configuration: []string{"global"}}}
	if !EqualDisplay(a, b) {
		t.Fatal("identical displays compare unequal")
	}

	// empty and absent collections are the same value
	c := &Display{Twake: Surface{Configuration: []string{}}}
	d := &Display{}
	if !EqualDisplay(c, d) {
		t.Fatal("empty and nil configuration compare unequal")
	}

	if !EqualDisplay(nil, nil) {
		t.Fatal("nil displays compare unequal")
	}
	if EqualDisplay(a, nil) {
		t.Fatal("nil compares equal to a value")
	}
	if EqualDisplay(a, &Display{Twake: Surface{Configuration: []string{"channel"}}}) {
		t.Fatal("different displays compare equal")
	}
}
