package remotestart_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestRemoteStart(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "RemoteStart Suite")
}
