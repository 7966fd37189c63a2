package credential_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yusufsyaifudin/fcmv1/pkg/credential"
	"github.com/yusufsyaifudin/fcmv1/pkg/fcmerr"
)

func privateKeyPEM(t testing.TB) string {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)

	return string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))
}

type tokenServer struct {
	*httptest.Server
	hits int32
}

func newTokenServer(t *testing.T, expiresIn int, delay time.Duration) *tokenServer {
	t.Helper()

	ts := &tokenServer{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&ts.hits, 1)

		if err := r.ParseForm(); err != nil || r.PostForm.Get("assertion") == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		time.Sleep(delay)
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"access_token":"token-%d","token_type":"Bearer","expires_in":%d}`, n, expiresIn)
	}))

	t.Cleanup(ts.Close)
	return ts
}

func testKey(t *testing.T, tokenURI string) credential.ServiceAccountKey {
	return credential.ServiceAccountKey{
		ProjectID:   "my-project",
		PrivateKey:  privateKeyPEM(t),
		ClientEmail: "fcm@my-project.iam.gserviceaccount.com",
		TokenURI:    tokenURI,
	}
}

func TestManager_Token(t *testing.T) {
	t.Run("cached", func(t *testing.T) {
		srv := newTokenServer(t, 3600, 0)

		m, err := credential.New(testKey(t, srv.URL))
		require.NoError(t, err)
		assert.Equal(t, "my-project", m.ProjectID())

		for i := 0; i < 3; i++ {
			tok, err := m.Token(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "token-1", tok)
		}

		assert.EqualValues(t, 1, atomic.LoadInt32(&srv.hits))
	})

	t.Run("concurrent callers share one refresh", func(t *testing.T) {
		srv := newTokenServer(t, 3600, 50*time.Millisecond)

		m, err := credential.New(testKey(t, srv.URL))
		require.NoError(t, err)

		const callers = 50
		tokens := make([]string, callers)
		errs := make([]error, callers)

		var wg sync.WaitGroup
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				tokens[i], errs[i] = m.Token(context.Background())
			}(i)
		}
		wg.Wait()

		for i := 0; i < callers; i++ {
			assert.NoError(t, errs[i])
			assert.Equal(t, "token-1", tokens[i])
		}

		assert.EqualValues(t, 1, atomic.LoadInt32(&srv.hits))
	})

	t.Run("concurrent callers share one refresh of an expired token", func(t *testing.T) {
		srv := newTokenServer(t, 3600, 50*time.Millisecond)

		var offset int64
		clock := func() time.Time {
			return time.Now().Add(time.Duration(atomic.LoadInt64(&offset)))
		}

		m, err := credential.New(testKey(t, srv.URL), credential.WithClock(clock))
		require.NoError(t, err)

		tok, err := m.Token(context.Background())
		require.NoError(t, err)
		require.Equal(t, "token-1", tok)

		// one hour token with a five minute margin is stale after 55 minutes
		atomic.StoreInt64(&offset, int64(56*time.Minute))

		const callers = 50
		tokens := make([]string, callers)
		errs := make([]error, callers)

		var wg sync.WaitGroup
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				tokens[i], errs[i] = m.Token(context.Background())
			}(i)
		}
		wg.Wait()

		for i := 0; i < callers; i++ {
			assert.NoError(t, errs[i])
			assert.Equal(t, "token-2", tokens[i])
		}

		assert.EqualValues(t, 2, atomic.LoadInt32(&srv.hits))
	})

	t.Run("token inside safety margin is refreshed", func(t *testing.T) {
		srv := newTokenServer(t, 60, 0)

		m, err := credential.New(testKey(t, srv.URL))
		require.NoError(t, err)

		tok1, err := m.Token(context.Background())
		require.NoError(t, err)
		tok2, err := m.Token(context.Background())
		require.NoError(t, err)

		assert.Equal(t, "token-1", tok1)
		assert.Equal(t, "token-2", tok2)
		assert.EqualValues(t, 2, atomic.LoadInt32(&srv.hits))
	})

	t.Run("smaller safety margin keeps short lived token", func(t *testing.T) {
		srv := newTokenServer(t, 60, 0)

		m, err := credential.New(testKey(t, srv.URL), credential.WithSafetyMargin(10*time.Second))
		require.NoError(t, err)

		_, err = m.Token(context.Background())
		require.NoError(t, err)
		_, err = m.Token(context.Background())
		require.NoError(t, err)

		assert.EqualValues(t, 1, atomic.LoadInt32(&srv.hits))
	})

	t.Run("clock moves past expiry", func(t *testing.T) {
		srv := newTokenServer(t, 3600, 0)

		var offset int64
		clock := func() time.Time {
			return time.Now().Add(time.Duration(atomic.LoadInt64(&offset)))
		}

		m, err := credential.New(testKey(t, srv.URL), credential.WithClock(clock))
		require.NoError(t, err)

		tok, err := m.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "token-1", tok)

		atomic.StoreInt64(&offset, int64(56*time.Minute))

		tok, err = m.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "token-2", tok)
	})

	t.Run("token endpoint failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
		}))
		defer srv.Close()

		m, err := credential.New(testKey(t, srv.URL))
		require.NoError(t, err)

		tok, err := m.Token(context.Background())
		assert.Empty(t, tok)
		assert.ErrorIs(t, err, fcmerr.ErrAuthentication)
	})

	t.Run("cancelled context", func(t *testing.T) {
		srv := newTokenServer(t, 3600, 0)

		m, err := credential.New(testKey(t, srv.URL))
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		for i := 0; i < 20; i++ {
			tok, err := m.Token(ctx)
			assert.Empty(t, tok)
			assert.ErrorIs(t, err, fcmerr.ErrAuthentication)
			assert.ErrorIs(t, err, context.Canceled)
		}

		assert.EqualValues(t, 0, atomic.LoadInt32(&srv.hits))
	})

	t.Run("cancel while token endpoint is slow", func(t *testing.T) {
		release := make(chan struct{})
		var hits int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&hits, 1)
			select {
			case <-r.Context().Done():
			case <-release:
			}

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"late","token_type":"Bearer","expires_in":3600}`))
		}))
		defer srv.Close()
		defer close(release)

		m, err := credential.New(testKey(t, srv.URL))
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
		defer cancel()

		t0 := time.Now()
		tok, err := m.Token(ctx)
		assert.Empty(t, tok)
		assert.ErrorIs(t, err, fcmerr.ErrAuthentication)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(t0), 2*time.Second)
		assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
	})
}

func TestNew_InvalidKey(t *testing.T) {
	pemKey := privateKeyPEM(t)

	testCases := []struct {
		Name string
		Key  credential.ServiceAccountKey
	}{
		{
			Name: "missing client email",
			Key:  credential.ServiceAccountKey{ProjectID: "p", PrivateKey: pemKey, TokenURI: "https://oauth2.googleapis.com/token"},
		},
		{
			Name: "missing project id",
			Key:  credential.ServiceAccountKey{ClientEmail: "a@b.c", PrivateKey: pemKey, TokenURI: "https://oauth2.googleapis.com/token"},
		},
		{
			Name: "private key is not pem",
			Key:  credential.ServiceAccountKey{ProjectID: "p", ClientEmail: "a@b.c", PrivateKey: "not a key", TokenURI: "https://oauth2.googleapis.com/token"},
		},
		{
			Name: "wrong type",
			Key:  credential.ServiceAccountKey{Type: "authorized_user", ProjectID: "p", ClientEmail: "a@b.c", PrivateKey: pemKey, TokenURI: "https://oauth2.googleapis.com/token"},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			m, err := credential.New(testCase.Key)
			assert.Nil(t, m)
			assert.ErrorIs(t, err, fcmerr.ErrAuthentication)
		})
	}
}

func TestFromSources(t *testing.T) {
	pemKey := privateKeyPEM(t)

	raw := fmt.Sprintf(`{
		"type": "service_account",
		"project_id": "my-project",
		"private_key_id": "abc",
		"private_key": %q,
		"client_email": "fcm@my-project.iam.gserviceaccount.com",
		"token_uri": "https://oauth2.googleapis.com/token"
	}`, pemKey)

	t.Run("json", func(t *testing.T) {
		m, err := credential.FromJSON([]byte(raw))
		require.NoError(t, err)
		assert.Equal(t, "my-project", m.ProjectID())
		assert.Equal(t, "fcm@my-project.iam.gserviceaccount.com", m.ClientEmail())
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "service-account.json")
		require.NoError(t, os.WriteFile(path, []byte(raw), 0600))

		m, err := credential.FromFile(path)
		require.NoError(t, err)
		assert.Equal(t, "my-project", m.ProjectID())
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := credential.FromFile(filepath.Join(t.TempDir(), "nope.json"))
		assert.ErrorIs(t, err, fcmerr.ErrAuthentication)
	})

	t.Run("map", func(t *testing.T) {
		m, err := credential.FromMap(map[string]interface{}{
			"project_id":   "my-project",
			"private_key":  pemKey,
			"client_email": "fcm@my-project.iam.gserviceaccount.com",
			"token_uri":    "https://oauth2.googleapis.com/token",
		})
		require.NoError(t, err)
		assert.Equal(t, "my-project", m.ProjectID())
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := credential.FromJSON([]byte(`{`))
		assert.ErrorIs(t, err, fcmerr.ErrAuthentication)
	})
}
