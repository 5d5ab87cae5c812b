package importer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/collabsuite/marketplace_layer/internal/app/domain/application"
	"github.com/collabsuite/marketplace_layer/internal/app/domain/legacy"
)

// legacyDisplay is the shape of the JSON display blob persisted by the old
// platform. The four module bindings are independent of each other.
type legacyDisplay struct {
	ChannelTab     *legacyIframe       `json:"channel_tab"`
	App            *legacyIframe       `json:"app"`
	MemberApp      bool                `json:"member_app"`
	Configuration  legacyConfiguration `json:"configuration"`
	DriveModule    *legacyDrive        `json:"drive_module"`
	MessagesModule *legacyMessages     `json:"messages_module"`
}

type legacyIframe struct {
	IframeURL string `json:"iframe_url"`
}

type legacyConfiguration struct {
	CanConfigureInWorkspace bool `json:"can_configure_in_workspace"`
	CanConfigureInChannel   bool `json:"can_configure_in_channel"`
}

type legacyDrive struct {
	PreviewURL      string                  `json:"preview_url"`
	EditURL         string                  `json:"edit_url"`
	MainExtensions  []string                `json:"main_ext"`
	OtherExtensions []string                `json:"other_ext"`
	EmptyFiles      []application.EmptyFile `json:"empty_files"`
}

type legacyMessages struct {
	PlusAction bool     `json:"plus_action"`
	RightIcon  bool     `json:"right_icon"`
	Commands   []string `json:"commands"`
	Action     string   `json:"action"`
}

// transformDisplay converts the legacy display blob. Unlike capability
// parsing, a malformed blob fails the import of this record: the display
// configuration cannot be safely defaulted.
func transformDisplay(rec legacy.Application) (*application.Display, error) {
	raw := strings.TrimSpace(rec.Display)
	if raw == "" {
		return nil, nil
	}

	var blob legacyDisplay
	if err := json.Unmarshal([]byte(raw), &blob); err != nil {
		return nil, fmt.Errorf("parse display blob: %w", err)
	}

	return &application.Display{
		Twake: application.Surface{
			Tab:           transformIframe(blob.ChannelTab),
			Standalone:    transformIframe(blob.App),
			Configuration: transformConfiguration(blob.Configuration),
			Direct:        transformMemberApp(blob.MemberApp, rec),
			Files:         transformDrive(blob.DriveModule),
			Chat:          transformMessages(blob.MessagesModule, rec),
		},
	}, nil
}

// transformIframe yields a URL binding when the legacy binding points at an
// iframe, otherwise a bare enablement flag.
func transformIframe(binding *legacyIframe) *application.IframeBinding {
	if binding == nil {
		return nil
	}
	return &application.IframeBinding{URL: binding.IframeURL}
}

// transformConfiguration builds the ordered configuration surface list:
// "global" first when workspace-level configuration is allowed, then
// "channel". The order is part of the output contract.
func transformConfiguration(cfg legacyConfiguration) []string {
	var surfaces []string
	if cfg.CanConfigureInWorkspace {
		surfaces = append(surfaces, "global")
	}
	if cfg.CanConfigureInChannel {
		surfaces = append(surfaces, "channel")
	}
	return surfaces
}

// transformMemberApp surfaces the application in direct conversations,
// carrying its display name and icon.
func transformMemberApp(enabled bool, rec legacy.Application) *application.DirectBinding {
	if !enabled {
		return nil
	}
	return &application.DirectBinding{Name: rec.Name, Icon: rec.Icon}
}

// transformDrive maps the drive module into a files-editing descriptor. The
// extension set concatenates the primary then the secondary legacy lists,
// order preserved.
func transformDrive(drive *legacyDrive) *application.FilesModule {
	if drive == nil {
		return nil
	}
	extensions := make([]string, 0, len(drive.MainExtensions)+len(drive.OtherExtensions))
	extensions = append(extensions, drive.MainExtensions...)
	extensions = append(extensions, drive.OtherExtensions...)
	return &application.FilesModule{
		PreviewURL: drive.PreviewURL,
		EditURL:    drive.EditURL,
		Extensions: extensions,
		EmptyFiles: append([]application.EmptyFile(nil), drive.EmptyFiles...),
	}
}

// transformMessages maps the messages module into a chat descriptor. The
// composer input binding exists when either legacy entry point was enabled;
// commands are copied verbatim; a legacy action description synthesizes a
// single default action.
func transformMessages(messages *legacyMessages, rec legacy.Application) *application.ChatModule {
	if messages == nil {
		return nil
	}
	chat := &application.ChatModule{}
	if messages.PlusAction || messages.RightIcon {
		chat.Input = &application.ChatInput{Icon: rec.Icon}
	}
	if len(messages.Commands) > 0 {
		chat.Commands = append([]string(nil), messages.Commands...)
	}
	if messages.Action != "" {
		chat.Actions = []application.ChatAction{{ID: "default", Description: messages.Action}}
	}
	return chat
}
