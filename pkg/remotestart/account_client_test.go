package remotestart_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jarcoal/httpmock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dronectl/remote-start/pkg/account"
	"github.com/dronectl/remote-start/pkg/remotestart"
)

func signedIdToken() string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "subject-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	Expect(err).ToNot(HaveOccurred())
	return token
}

var _ = Describe("Main with account client", func() {
	var stdout, stderr *bytes.Buffer

	vehicleURL := account.DefaultAPIBase + "/vehicle"
	gatewayPage := "<html>\n<head><title>502 Bad Gateway</title></head>\n<body>" +
		strings.Repeat("x", 5000) + "</body>\n</html>\n"

	BeforeEach(func() {
		stdout = &bytes.Buffer{}
		stderr = &bytes.Buffer{}
		httpmock.Activate()
		DeferCleanup(httpmock.DeactivateAndReset)
	})

	main := func() int {
		return remotestart.Main(context.Background(), lookup(validEnv), stdout, stderr, remotestart.NewAccountClient)
	}

	loginSucceeds := func() {
		httpmock.RegisterResponder(http.MethodPost, account.DefaultAuthURL, func(req *http.Request) (*http.Response, error) {
			return httpmock.NewJsonResponse(http.StatusOK, map[string]any{
				"AuthenticationResult": map[string]any{
					"IdToken":   signedIdToken(),
					"ExpiresIn": 3600,
					"TokenType": "Bearer",
				},
			})
		})
	}

	It("starts the first vehicle and prints the response", func() {
		loginSucceeds()
		httpmock.RegisterResponder(http.MethodGet, vehicleURL,
			httpmock.NewStringResponder(http.StatusOK, `{"results":[{"deviceKey":"abc123"}]}`))
		httpmock.RegisterResponder(http.MethodPost, account.DefaultCommandURL, func(req *http.Request) (*http.Response, error) {
			body, _ := io.ReadAll(req.Body)
			var cmd map[string]string
			Expect(json.Unmarshal(body, &cmd)).To(Succeed())
			Expect(cmd).To(Equal(map[string]string{"deviceKey": "abc123", "command": "remote_start"}))
			Expect(req.Header.Get("Authorization")).To(HavePrefix("Bearer "))
			return httpmock.NewStringResponse(http.StatusOK, `{"status":"ok"}`), nil
		})

		Expect(main()).To(Equal(remotestart.ExitSuccess))
		Expect(stdout.String()).To(Equal("{\n  \"status\": \"ok\"\n}\n"))
		Expect(stderr.Len()).To(BeZero())
		Expect(httpmock.GetTotalCallCount()).To(Equal(3))
	})

	It("reports rejected credentials on one line", func() {
		httpmock.RegisterResponder(http.MethodPost, account.DefaultAuthURL,
			httpmock.NewStringResponder(http.StatusBadRequest, `{"__type":"NotAuthorizedException","message":"Incorrect username or password."}`))

		Expect(main()).To(Equal(remotestart.ExitFailure))
		Expect(stdout.Len()).To(BeZero())
		Expect(stderr.String()).To(Equal("Error during authentication or vehicle retrieval: authentication failed: NotAuthorizedException: Incorrect username or password.\n"))
		Expect(httpmock.GetTotalCallCount()).To(Equal(1))
	})

	It("does not copy gateway error pages to stderr", func() {
		httpmock.RegisterResponder(http.MethodPost, account.DefaultAuthURL,
			httpmock.NewStringResponder(http.StatusBadGateway, gatewayPage))

		Expect(main()).To(Equal(remotestart.ExitFailure))
		Expect(stderr.String()).To(Equal("Error during authentication or vehicle retrieval: authentication failed: 502 Bad Gateway\n"))
	})

	It("reports gateway errors from the start command on one line", func() {
		loginSucceeds()
		httpmock.RegisterResponder(http.MethodGet, vehicleURL,
			httpmock.NewStringResponder(http.StatusOK, `{"results":[{"deviceKey":"abc123"}]}`))
		httpmock.RegisterResponder(http.MethodPost, account.DefaultCommandURL,
			httpmock.NewStringResponder(http.StatusBadGateway, gatewayPage))

		Expect(main()).To(Equal(remotestart.ExitFailure))
		Expect(stdout.Len()).To(BeZero())
		Expect(stderr.String()).To(Equal("Error issuing remote start command: 502 Bad Gateway\n"))
	})

	It("reports listing failures with a short plain-text body", func() {
		loginSucceeds()
		httpmock.RegisterResponder(http.MethodGet, vehicleURL,
			httpmock.NewStringResponder(http.StatusServiceUnavailable, "upstream unavailable\nretry later\n"))

		Expect(main()).To(Equal(remotestart.ExitFailure))
		Expect(stderr.String()).To(Equal("Error during authentication or vehicle retrieval: 503 Service Unavailable: upstream unavailable\n"))
	})
})
