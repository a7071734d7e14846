package speech

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSynthesizeSendsSSML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/ssml+xml", r.Header.Get("Content-Type"))
		require.Equal(t, "key-123", r.Header.Get("Ocp-Apim-Subscription-Key"))
		require.Equal(t, outputFormat, r.Header.Get("X-Microsoft-OutputFormat"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.Contains(t, string(body), `<voice name='kn-IN-SapnaNeural'>`)
		require.Contains(t, string(body), "a &amp; b")

		w.Write([]byte("mp3-bytes"))
	}))
	defer server.Close()

	synthesizer, err := NewAzureSynthesizer(AzureConfig{SubscriptionKey: "key-123", Region: "centralindia"})
	require.NoError(t, err)
	synthesizer.endpoint = server.URL

	audio, err := synthesizer.Synthesize(context.Background(), "a & b", "kn-IN-SapnaNeural")
	require.NoError(t, err)
	require.Equal(t, []byte("mp3-bytes"), audio)
}

func TestSynthesizeSurfacesHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("quota exceeded"))
	}))
	defer server.Close()

	synthesizer, err := NewAzureSynthesizer(AzureConfig{SubscriptionKey: "k", Region: "eastus"})
	require.NoError(t, err)
	synthesizer.endpoint = server.URL

	_, err = synthesizer.Synthesize(context.Background(), "text", "en-IN-NeerjaNeural")
	require.Error(t, err)
	require.Contains(t, err.Error(), "429")
	require.Contains(t, err.Error(), "quota exceeded")
}

func TestNewAzureSynthesizerRequiresCredentials(t *testing.T) {
	_, err := NewAzureSynthesizer(AzureConfig{})
	require.Error(t, err)
}

func TestXMLEscape(t *testing.T) {
	require.Equal(t, "a &amp; b &lt;c&gt; &apos;d&apos; &quot;e&quot;", xmlEscape(`a & b <c> 'd' "e"`))
}
