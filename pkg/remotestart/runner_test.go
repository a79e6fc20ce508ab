package remotestart_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/dronectl/remote-start/mocks"
	"github.com/dronectl/remote-start/pkg/remotestart"
	"github.com/dronectl/remote-start/pkg/vehicle"
)

const (
	username = "driver@example.com"
	password = "hunter2"
)

var validEnv = map[string]string{
	remotestart.EnvUsername: username,
	remotestart.EnvPassword: password,
}

func lookup(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

var _ = Describe("Runner", func() {
	var (
		ctrl       *gomock.Controller
		mockClient *mocks.RemoteStartClient
		ctx        context.Context
		newCalls   int
		newErr     error
		newClient  remotestart.NewClientFunc
	)

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
		mockClient = mocks.NewRemoteStartClient(ctrl)
		ctx = context.Background()
		newCalls = 0
		newErr = nil
		newClient = func(u, p string) (remotestart.Client, error) {
			newCalls++
			Expect(u).To(Equal(username))
			Expect(p).To(Equal(password))
			if newErr != nil {
				return nil, newErr
			}
			return mockClient, nil
		}
		DeferCleanup(func() {
			ctrl.Finish()
		})
	})

	Describe("Run", func() {
		run := func(creds remotestart.Credentials) (json.RawMessage, error) {
			return remotestart.New(newClient).Run(ctx, creds)
		}
		valid := remotestart.Credentials{Username: username, Password: password}

		DescribeTable("rejects missing credentials without contacting the service",
			func(creds remotestart.Credentials) {
				_, err := run(creds)
				Expect(remotestart.KindOf(err)).To(Equal(remotestart.KindConfiguration))
				Expect(errors.Is(err, remotestart.ErrMissingCredentials)).To(BeTrue())
				Expect(newCalls).To(BeZero())
			},
			Entry("both empty", remotestart.Credentials{}),
			Entry("no username", remotestart.Credentials{Password: password}),
			Entry("no password", remotestart.Credentials{Username: username}),
		)

		It("reports client construction failures as authentication errors", func() {
			newErr = errors.New("bad client")
			_, err := run(valid)
			Expect(remotestart.KindOf(err)).To(Equal(remotestart.KindAuthentication))
			Expect(err.Error()).To(ContainSubstring("bad client"))
		})

		It("stops after a failed authentication", func() {
			mockClient.EXPECT().Authenticate(gomock.Any()).Return(errors.New("NotAuthorizedException: Incorrect username or password."))
			_, err := run(valid)
			Expect(remotestart.KindOf(err)).To(Equal(remotestart.KindAuthentication))
			Expect(err.Error()).To(Equal("Error during authentication or vehicle retrieval: NotAuthorizedException: Incorrect username or password."))
		})

		It("reports listing failures as authentication errors", func() {
			mockClient.EXPECT().Authenticate(gomock.Any()).Return(nil)
			mockClient.EXPECT().ListVehicles(gomock.Any()).Return(nil, errors.New("502 Bad Gateway"))
			_, err := run(valid)
			Expect(remotestart.KindOf(err)).To(Equal(remotestart.KindAuthentication))
			Expect(err.Error()).To(ContainSubstring("502 Bad Gateway"))
		})

		It("treats a nil vehicle list as empty", func() {
			mockClient.EXPECT().Authenticate(gomock.Any()).Return(nil)
			mockClient.EXPECT().ListVehicles(gomock.Any()).Return(nil, nil)
			_, err := run(valid)
			Expect(remotestart.KindOf(err)).To(Equal(remotestart.KindNoVehicles))
			Expect(errors.Is(err, remotestart.ErrNoVehicles)).To(BeTrue())
		})

		It("only inspects the first vehicle", func() {
			mockClient.EXPECT().Authenticate(gomock.Any()).Return(nil)
			mockClient.EXPECT().ListVehicles(gomock.Any()).Return([]vehicle.Record{
				{"name": "First"},
				{"deviceKey": "second"},
			}, nil)
			_, err := run(valid)
			Expect(remotestart.KindOf(err)).To(Equal(remotestart.KindDeviceKey))
			Expect(errors.Is(err, vehicle.ErrDeviceKeyNotFound)).To(BeTrue())
		})

		It("starts the first vehicle using the normalized device key", func() {
			response := json.RawMessage(`{"command_success": true}`)
			gomock.InOrder(
				mockClient.EXPECT().Authenticate(gomock.Any()).Return(nil),
				mockClient.EXPECT().ListVehicles(gomock.Any()).Return([]vehicle.Record{
					{"device_key": "", "deviceID": "first"},
					{"deviceKey": "second"},
				}, nil),
				mockClient.EXPECT().Start(gomock.Any(), "first").Return(response, nil),
			)
			rsp, err := run(valid)
			Expect(err).ToNot(HaveOccurred())
			Expect(rsp).To(Equal(response))
		})

		It("reports start failures as command errors", func() {
			mockClient.EXPECT().Authenticate(gomock.Any()).Return(nil)
			mockClient.EXPECT().ListVehicles(gomock.Any()).Return([]vehicle.Record{{"deviceKey": "abc123"}}, nil)
			mockClient.EXPECT().Start(gomock.Any(), "abc123").Return(nil, errors.New("device offline"))
			_, err := run(valid)
			Expect(remotestart.KindOf(err)).To(Equal(remotestart.KindCommand))
			Expect(err.Error()).To(Equal("Error issuing remote start command: device offline"))
		})
	})

	Describe("Main", func() {
		var stdout, stderr *bytes.Buffer

		BeforeEach(func() {
			stdout = &bytes.Buffer{}
			stderr = &bytes.Buffer{}
		})

		main := func(env map[string]string) int {
			return remotestart.Main(ctx, lookup(env), stdout, stderr, newClient)
		}

		expectSingleLineFailure := func(status int) {
			Expect(status).To(Equal(remotestart.ExitFailure))
			Expect(stdout.Len()).To(BeZero())
			Expect(strings.Count(stderr.String(), "\n")).To(Equal(1))
		}

		It("fails when credentials are not set", func() {
			expectSingleLineFailure(main(map[string]string{}))
			Expect(stderr.String()).To(ContainSubstring("must be set as environment variables"))
			Expect(newCalls).To(BeZero())
		})

		It("fails when a credential is empty", func() {
			expectSingleLineFailure(main(map[string]string{remotestart.EnvUsername: username, remotestart.EnvPassword: ""}))
			Expect(stderr.String()).To(ContainSubstring("must be set as environment variables"))
		})

		It("fails when the account has no vehicles", func() {
			mockClient.EXPECT().Authenticate(gomock.Any()).Return(nil)
			mockClient.EXPECT().ListVehicles(gomock.Any()).Return([]vehicle.Record{}, nil)
			expectSingleLineFailure(main(validEnv))
			Expect(stderr.String()).To(ContainSubstring("No vehicles were found"))
		})

		It("prints the response with two-space indentation", func() {
			mockClient.EXPECT().Authenticate(gomock.Any()).Return(nil)
			mockClient.EXPECT().ListVehicles(gomock.Any()).Return([]vehicle.Record{{"deviceKey": "abc123", "name": "Car"}}, nil)
			mockClient.EXPECT().Start(gomock.Any(), "abc123").Return(json.RawMessage(`{"status": "ok"}`), nil)
			Expect(main(validEnv)).To(Equal(remotestart.ExitSuccess))
			Expect(stdout.String()).To(Equal("{\n  \"status\": \"ok\"\n}\n"))
			Expect(stderr.Len()).To(BeZero())
		})

		It("preserves the server's key order", func() {
			mockClient.EXPECT().Authenticate(gomock.Any()).Return(nil)
			mockClient.EXPECT().ListVehicles(gomock.Any()).Return([]vehicle.Record{{"device_id": "abc123"}}, nil)
			mockClient.EXPECT().Start(gomock.Any(), "abc123").Return(json.RawMessage(`{"z":1,"a":{"b":[1,2]}}`), nil)
			Expect(main(validEnv)).To(Equal(remotestart.ExitSuccess))
			Expect(stdout.String()).To(Equal("{\n  \"z\": 1,\n  \"a\": {\n    \"b\": [\n      1,\n      2\n    ]\n  }\n}\n"))
		})

		It("lists the available keys when the device key is missing", func() {
			mockClient.EXPECT().Authenticate(gomock.Any()).Return(nil)
			mockClient.EXPECT().ListVehicles(gomock.Any()).Return([]vehicle.Record{{"name": "Car"}}, nil)
			expectSingleLineFailure(main(validEnv))
			Expect(stderr.String()).To(ContainSubstring("Device key not found"))
			Expect(stderr.String()).To(ContainSubstring("['name']"))
		})

		It("reports transport errors during authentication", func() {
			mockClient.EXPECT().Authenticate(gomock.Any()).Return(errors.New("dial tcp: connection refused"))
			expectSingleLineFailure(main(validEnv))
			Expect(stderr.String()).To(ContainSubstring("Error during authentication or vehicle retrieval"))
			Expect(stderr.String()).To(ContainSubstring("dial tcp: connection refused"))
		})

		It("flattens multi-line causes", func() {
			mockClient.EXPECT().Authenticate(gomock.Any()).Return(errors.New("first line\nsecond line\r\n"))
			expectSingleLineFailure(main(validEnv))
			Expect(stderr.String()).To(Equal("Error during authentication or vehicle retrieval: first line second line \n"))
		})

		It("reports command failures", func() {
			mockClient.EXPECT().Authenticate(gomock.Any()).Return(nil)
			mockClient.EXPECT().ListVehicles(gomock.Any()).Return([]vehicle.Record{{"deviceKey": "abc123"}}, nil)
			mockClient.EXPECT().Start(gomock.Any(), "abc123").Return(nil, errors.New("timeout"))
			expectSingleLineFailure(main(validEnv))
			Expect(stderr.String()).To(Equal("Error issuing remote start command: timeout\n"))
		})

		It("recovers from panics in the client", func() {
			mockClient.EXPECT().Authenticate(gomock.Any()).DoAndReturn(func(context.Context) error {
				panic("boom")
			})
			expectSingleLineFailure(main(validEnv))
			Expect(stderr.String()).To(Equal("Unexpected error: boom\n"))
		})

		It("rejects responses that are not JSON", func() {
			mockClient.EXPECT().Authenticate(gomock.Any()).Return(nil)
			mockClient.EXPECT().ListVehicles(gomock.Any()).Return([]vehicle.Record{{"deviceKey": "abc123"}}, nil)
			mockClient.EXPECT().Start(gomock.Any(), "abc123").Return(json.RawMessage(`not json`), nil)
			expectSingleLineFailure(main(validEnv))
			Expect(stderr.String()).To(HavePrefix("Unexpected error:"))
		})

		It("prints null for an empty response", func() {
			mockClient.EXPECT().Authenticate(gomock.Any()).Return(nil)
			mockClient.EXPECT().ListVehicles(gomock.Any()).Return([]vehicle.Record{{"deviceKey": "abc123"}}, nil)
			mockClient.EXPECT().Start(gomock.Any(), "abc123").Return(nil, nil)
			Expect(main(validEnv)).To(Equal(remotestart.ExitSuccess))
			Expect(stdout.String()).To(Equal("null\n"))
		})
	})
})
