package server_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/taskalign/taskalign/pkg/server"
)

var _ = Describe("Config", func() {
	It("overlays file values onto the defaults", func() {
		path := filepath.Join(GinkgoT().TempDir(), "config.yml")
		Expect(os.WriteFile(path, []byte("listen_address: \":9090\"\nmax_concurrent_solves: 8\n"), 0o600)).To(Succeed())

		cfg, err := server.LoadConfig(path)
		Expect(err).ToNot(HaveOccurred())
		Expect(cfg.ListenAddress).To(Equal(":9090"))
		Expect(cfg.MaxConcurrentSolves).To(Equal(int64(8)))
		// Untouched fields keep their defaults.
		Expect(cfg.RequestsPerSecond).To(Equal(server.DefaultConfig().RequestsPerSecond))
		Expect(cfg.CacheTTLSeconds).To(Equal(server.DefaultConfig().CacheTTLSeconds))
	})

	It("fails on a missing file", func() {
		_, err := server.LoadConfig("/nonexistent/config.yml")
		Expect(err).To(MatchError(ContainSubstring("reading config file")))
	})

	It("fails on invalid YAML", func() {
		path := filepath.Join(GinkgoT().TempDir(), "config.yml")
		Expect(os.WriteFile(path, []byte(":\n\t- broken"), 0o600)).To(Succeed())
		_, err := server.LoadConfig(path)
		Expect(err).To(MatchError(ContainSubstring("parsing config file")))
	})
})
