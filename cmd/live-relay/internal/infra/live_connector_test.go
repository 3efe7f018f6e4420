package infra

import (
	"testing"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestToUpstreamEvent_ServerContent(t *testing.T) {
	// 准备测试数据
	msg := &genai.LiveServerMessage{
		ServerContent: &genai.LiveServerContent{
			ModelTurn: &genai.Content{Parts: []*genai.Part{
				{InlineData: &genai.Blob{Data: []byte{1, 2}, MIMEType: "audio/pcm"}},
				{Text: "ignored"},
				{InlineData: &genai.Blob{Data: []byte{3}}},
			}},
			TurnComplete:        true,
			OutputTranscription: &genai.Transcription{Text: "Great job"},
			InputTranscription:  &genai.Transcription{Text: "I ran today"},
		},
	}

	// 执行转换
	ev := toUpstreamEvent(msg)

	// 验证结果
	assert.Equal(t, [][]byte{{1, 2}, {3}}, ev.Audio)
	assert.True(t, ev.TurnComplete)
	assert.False(t, ev.Interrupted)
	assert.Equal(t, "Great job", ev.OutputText)
	assert.Equal(t, "I ran today", ev.InputText)
}

func TestToUpstreamEvent_ControlMessages(t *testing.T) {
	msg := &genai.LiveServerMessage{
		SessionResumptionUpdate: &genai.LiveServerSessionResumptionUpdate{NewHandle: "h-1", Resumable: true},
		GoAway:                  &genai.LiveServerGoAway{},
		ServerContent:           &genai.LiveServerContent{Interrupted: true},
	}

	ev := toUpstreamEvent(msg)
	assert.Equal(t, "h-1", ev.ResumptionHandle)
	assert.True(t, ev.Resumable)
	assert.True(t, ev.GoAway)
	assert.True(t, ev.Interrupted)
	assert.Empty(t, ev.Audio)
}

func TestToUpstreamEvent_Nil(t *testing.T) {
	ev := toUpstreamEvent(nil)
	require.NotNil(t, ev)
	assert.Empty(t, ev.OutputText)
}

func TestLiveConnector_ConnectConfig(t *testing.T) {
	c := NewLiveConnector(NewClientFactory(ClientOptions{}), LiveOptions{Model: "gemini-live-2.5-flash-preview-native-audio"}, log.DefaultLogger)

	cfg := c.connectConfig("be kind")

	assert.Equal(t, []genai.Modality{genai.ModalityAudio}, cfg.ResponseModalities)
	assert.Equal(t, "Puck", cfg.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName)
	assert.Equal(t, "be kind", cfg.SystemInstruction.Parts[0].Text)
	assert.NotNil(t, cfg.SessionResumption)
	assert.Empty(t, cfg.SessionResumption.Handle)
	assert.NotNil(t, cfg.InputAudioTranscription)
	assert.NotNil(t, cfg.OutputAudioTranscription)
	assert.Empty(t, cfg.Tools)
	assert.Equal(t, "gemini-live-2.5-flash-preview-native-audio", c.Model())
}
