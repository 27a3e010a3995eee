package apiclient

import (
	"context"
	"io"
	"net/http"
	"strconv"

	apierrors "langteacher/errors"
	"langteacher/types"
)

// TranscribeOptions are the optional transcription form fields. Unset
// values are not sent so the backend applies its own defaults.
type TranscribeOptions struct {
	Language string
	Correct  *bool
}

func (o TranscribeOptions) apply(form *formBody) {
	form.addOptional("language", o.Language)
	if o.Correct != nil {
		form.addField("correct", strconv.FormatBool(*o.Correct))
	}
}

func audioForm(audio io.Reader) *formBody {
	return &formBody{files: []formFile{{field: audioField, filename: audioFilename, content: audio}}}
}

// TranscribeAudio uploads a recording and returns the transcription.
func (c *Client) TranscribeAudio(ctx context.Context, audio io.Reader, opts TranscribeOptions) (*types.Transcription, error) {
	if audio == nil {
		return nil, apierrors.NewInvalidInput("audio is required")
	}
	form := audioForm(audio)
	opts.apply(form)

	return call[types.Transcription](ctx, c, &request{
		method:   http.MethodPost,
		path:     "/api/audio/transcribe",
		body:     form,
		fallback: fallbackTranscribe,
	})
}

// TranscribeAndSend transcribes a recording and posts the text to chatID in
// one round trip, so nothing else can land in the chat between the two.
func (c *Client) TranscribeAndSend(ctx context.Context, audio io.Reader, chatID string, detectGrammar bool, opts TranscribeOptions) (*types.TranscribeAndSendResult, error) {
	if audio == nil {
		return nil, apierrors.NewInvalidInput("audio is required")
	}
	if err := requireID("chat", chatID); err != nil {
		return nil, err
	}
	form := audioForm(audio).
		addField("chat_id", chatID).
		addField("detect_grammar", strconv.FormatBool(detectGrammar))
	opts.apply(form)

	return call[types.TranscribeAndSendResult](ctx, c, &request{
		method:   http.MethodPost,
		path:     "/api/audio/transcribe-and-send",
		body:     form,
		fallback: fallbackTranscribeSend,
	})
}

// GetAudioFormats lists the recording formats the backend accepts.
func (c *Client) GetAudioFormats(ctx context.Context) (*types.AudioFormats, error) {
	return call[types.AudioFormats](ctx, c, &request{method: http.MethodGet, path: "/api/audio/formats"})
}
