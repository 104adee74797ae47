package services

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"xjsf/internal/models"
	"xjsf/internal/param"
	"xjsf/internal/service"

	"github.com/Masterminds/semver/v3"
)

var (
	echoMessage   = param.String("message", "The text to send back", "")
	echoTags      = param.StringList("tags", "Labels to attach to the echo, separated by , ; or :", nil)
	echoRepeat    = param.IntInRange("repeat", "How many times to repeat the message", 1, 1, 100)
	echoTransform = param.Enum("transform", "How to change the message before repeating it", "none",
		param.Value{Name: "none", Description: "leave the message as sent"},
		param.Value{Name: "upper", Description: "convert to upper case"},
		param.Value{Name: "lower", Description: "convert to lower case"},
	)
	echoSince = param.Version("since", "List echo features added after this version", nil)
)

// echoChanges is the feature history reported through the since parameter.
var echoChanges = []struct {
	version *semver.Version
	change  string
}{
	{semver.MustParse("1.0.0"), "echo a message"},
	{semver.MustParse("1.1.0"), "repeat and transform parameters"},
	{semver.MustParse("1.2.0"), "tags parameter group"},
	{semver.MustParse("1.3.0"), "direct text output"},
}

// EchoResult is the echo payload.
type EchoResult struct {
	models.Envelope
	Group   string   `xml:"group,attr" json:"group"`
	Text    string   `xml:"text" json:"text"`
	Tags    []string `xml:"tags>tag,omitempty" json:"tags,omitempty"`
	Changes []string `xml:"changes>change,omitempty" json:"changes,omitempty"`
}

// Echo sends its input back. It takes either a message alone or a message
// with tags.
type Echo struct {
	desc *service.Descriptor
}

func NewEcho() *Echo {
	plain := param.NewGroup("plain", "Echo a message", echoMessage)
	tagged := param.NewGroup("tagged", "Echo a message with labels attached", echoMessage, echoTags)

	return &Echo{desc: &service.Descriptor{
		Name:    "echo",
		Group:   GroupCore,
		Summary: "Sends your message back",
		Details: "Returns the message, optionally transformed and repeated. " +
			"With responseFormat=direct the text is returned as plain text.",
		Groups:  []*param.Group{tagged, plain},
		Globals: []param.Parameter{echoRepeat, echoTransform, echoSince},
		Examples: []service.Example{
			{
				Description: "Shout a greeting twice",
				Settings: []param.Setting{
					echoMessage.Example("hello"),
					echoRepeat.Example(2),
					echoTransform.Example("upper"),
				},
			},
			{
				Description: "Echo with labels",
				Settings: []param.Setting{
					echoMessage.Example("status"),
					echoTags.Example([]string{"ops", "daily"}),
				},
			},
		},
	}}
}

func (s *Echo) Descriptor() *service.Descriptor { return s.desc }

func (s *Echo) Respond(r *http.Request) (models.Payload, error) {
	group := s.desc.SpecifiedGroup(r.Form)
	if group == nil {
		return nil, service.InvalidParameter(echoMessage.Name(), errors.New("a message is required"))
	}

	text, err := echoText(r)
	if err != nil {
		return nil, err
	}
	out := &EchoResult{Group: group.Name, Text: text}

	if tags, err := echoTags.Value(r.Form); err != nil {
		return nil, err
	} else if group.Name == "tagged" {
		out.Tags = tags
	}

	since, err := echoSince.Value(r.Form)
	if err != nil {
		return nil, err
	}
	if since != nil {
		for _, c := range echoChanges {
			if c.version.GreaterThan(since) {
				out.Changes = append(out.Changes, fmt.Sprintf("%s: %s", c.version, c.change))
			}
		}
	}
	return out, nil
}

// ServeDirect writes the echoed text as text/plain.
func (s *Echo) ServeDirect(w http.ResponseWriter, r *http.Request) error {
	if s.desc.SpecifiedGroup(r.Form) == nil {
		http.Error(w, "a message is required", http.StatusBadRequest)
		return nil
	}
	text, err := echoText(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, err = fmt.Fprintln(w, text)
	return err
}

func echoText(r *http.Request) (string, error) {
	message, err := echoMessage.Value(r.Form)
	if err != nil {
		return "", err
	}
	repeat, err := echoRepeat.Value(r.Form)
	if err != nil {
		return "", err
	}
	transform, err := echoTransform.Value(r.Form)
	if err != nil {
		return "", err
	}

	switch transform {
	case "upper":
		message = strings.ToUpper(message)
	case "lower":
		message = strings.ToLower(message)
	}
	return strings.Join(slices.Repeat([]string{message}, repeat), " "), nil
}
