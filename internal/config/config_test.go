package config

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = Describe("Config", func() {
	var (
		tempDir    string
		configFile string
	)

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "config-test")
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		configFile = filepath.Join(tempDir, "config.yaml")
	})

	AfterEach(func() {
		os.RemoveAll(tempDir)
	})

	writeConfig := func(content string) {
		gomega.Expect(os.WriteFile(configFile, []byte(content), 0o600)).To(gomega.Succeed())
	}

	Describe("Load", func() {
		Context("when config file exists with valid content", func() {
			BeforeEach(func() {
				writeConfig(`
logging:
  level: debug
  format: text

server:
  addr: ":9090"

providers:
  crossref:
    rate: 45
    burst: 45
  perplexity:
    rate: 0.17
    burst: 1

breaker:
  failure_threshold: 5
  cool_down: "1m"
  probe_max: 3

retry:
  max_attempts: 3
  rate_limit_max_attempts: 5
  initial_delay: "500ms"
  max_delay: "30s"
  backoff_multiplier: 2.0
  overrides:
    semantic_scholar:
      max_attempts: 2

llm:
  primary:
    provider: openai
    api_key: ${TEST_OPENAI_KEY}
    model: gpt-4o-mini
    timeout: "45s"

discovery:
  preset: fast
  crossref_mailto: ops@example.org
  min_relevance: 0.6

fallbacks:
  citation_formatter: true
  quality_checker: false
`)
			})

			It("should load and parse every section", func() {
				os.Setenv("TEST_OPENAI_KEY", "sk-test-123")
				defer os.Unsetenv("TEST_OPENAI_KEY")

				cfg, err := Load(configFile)
				gomega.Expect(err).NotTo(gomega.HaveOccurred())

				gomega.Expect(cfg.Logging.Level).To(gomega.Equal("debug"))
				gomega.Expect(cfg.Server.Addr).To(gomega.Equal(":9090"))
				gomega.Expect(cfg.Providers["crossref"].Rate).To(gomega.Equal(45.0))
				gomega.Expect(cfg.Providers["perplexity"].Burst).To(gomega.Equal(1))
				gomega.Expect(cfg.Breaker.CoolDown.Std()).To(gomega.Equal(time.Minute))
				gomega.Expect(cfg.Retry.InitialDelay.Std()).To(gomega.Equal(500 * time.Millisecond))
				gomega.Expect(cfg.Retry.Overrides["semantic_scholar"].MaxAttempts).To(gomega.Equal(2))
				gomega.Expect(cfg.LLM["primary"].APIKey).To(gomega.Equal("sk-test-123"))
				gomega.Expect(cfg.LLM["primary"].Timeout.Std()).To(gomega.Equal(45 * time.Second))
				gomega.Expect(cfg.Discovery.Preset).To(gomega.Equal("fast"))
				gomega.Expect(cfg.Fallbacks.CitationFormatter).To(gomega.BeTrue())
				gomega.Expect(cfg.Fallbacks.QualityChecker).To(gomega.BeFalse())
			})
		})

		Context("when fields are omitted", func() {
			It("should fill defaults", func() {
				writeConfig("logging: {level: info}\n")

				cfg, err := Load(configFile)
				gomega.Expect(err).NotTo(gomega.HaveOccurred())
				gomega.Expect(cfg.Server.Addr).To(gomega.Equal(":8085"))
				gomega.Expect(cfg.Breaker.FailureThreshold).To(gomega.Equal(5))
				gomega.Expect(cfg.Breaker.ProbeMax).To(gomega.Equal(3))
				gomega.Expect(cfg.Retry.MaxAttempts).To(gomega.Equal(3))
				gomega.Expect(cfg.Retry.RateLimitMaxAttempts).To(gomega.Equal(5))
				gomega.Expect(cfg.Retry.JitterEnabled()).To(gomega.BeTrue())
			})
		})

		Context("when content is invalid", func() {
			It("should reject an unknown logging level", func() {
				writeConfig("logging: {level: verbose}\n")

				_, err := Load(configFile)
				gomega.Expect(err).To(gomega.HaveOccurred())
				gomega.Expect(err.Error()).To(gomega.ContainSubstring("validating config"))
			})

			It("should reject malformed durations", func() {
				writeConfig("breaker: {cool_down: \"one minute\"}\n")

				_, err := Load(configFile)
				gomega.Expect(err).To(gomega.HaveOccurred())
				gomega.Expect(err.Error()).To(gomega.ContainSubstring("invalid duration"))
			})

			It("should reject a missing file", func() {
				_, err := Load(filepath.Join(tempDir, "absent.yaml"))
				gomega.Expect(err).To(gomega.HaveOccurred())
			})
		})
	})

	Describe("Watch", func() {
		It("should deliver reloaded configs and skip broken edits", func() {
			writeConfig("logging: {level: info}\n")

			logger := newTestLogger()
			reloads := make(chan *Config, 4)
			stop, err := Watch(configFile, logger, func(cfg *Config) {
				reloads <- cfg
			})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			defer stop()

			writeConfig("logging: {level: warn}\n")
			gomega.Eventually(reloads, "3s").Should(gomega.Receive(gomega.HaveField("Logging.Level", "warn")))

			writeConfig("logging: {level: verbose}\n")
			writeConfig("logging: {level: error}\n")
			gomega.Eventually(reloads, "3s").Should(gomega.Receive(gomega.HaveField("Logging.Level", "error")))
		})
	})
})
