package paymentgateway_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"
	"unicode/utf8"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	errors "github.com/quanlynhankhau/registry-api/internal"
	"github.com/quanlynhankhau/registry-api/internal/paymentgateway"
	"github.com/quanlynhankhau/registry-api/internal/signature"
)

func TestPaymentGateway(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "PaymentGateway Suite")
}

var _ = Describe("Client.CreatePaymentLink", func() {
	var (
		logger   *slog.Logger
		received map[string]interface{}
	)

	BeforeEach(func() {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		received = nil
	})

	newClient := func(baseURL string) *paymentgateway.Client {
		return paymentgateway.NewClient(paymentgateway.Config{
			BaseURL:        baseURL,
			ClientID:       "client-id",
			APIKey:         "api-key",
			ChecksumKey:    "checksum-key",
			RequestTimeout: 2 * time.Second,
		}, logger)
	}

	captureServer := func(response string, status int) *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &received)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(response))
		}))
	}

	Context("when the provider accepts the request", func() {
		It("returns the checkout link and sends credential headers", func() {
			var gotClientID, gotAPIKey string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotClientID = r.Header.Get("x-client-id")
				gotAPIKey = r.Header.Get("x-api-key")
				body, _ := io.ReadAll(r.Body)
				_ = json.Unmarshal(body, &received)
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"code":"00","desc":"success","data":{"checkoutUrl":"https://pay.example/c/1","qrCode":"000201qr","paymentLinkId":"pl-1"}}`))
			}))
			defer server.Close()

			link, err := newClient(server.URL).CreatePaymentLink(context.Background(), paymentgateway.CreateLinkRequest{
				OrderCode:   1234,
				Amount:      50000,
				Description: "Phi ve sinh",
				ReturnURL:   "https://x/return",
				CancelURL:   "https://x/cancel",
				ItemName:    "Phi ve sinh",
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(link.CheckoutURL).To(Equal("https://pay.example/c/1"))
			Expect(link.QRCode).To(Equal("000201qr"))
			Expect(link.PaymentLinkID).To(Equal("pl-1"))
			Expect(gotClientID).To(Equal("client-id"))
			Expect(gotAPIKey).To(Equal("api-key"))
		})

		It("signs the transmitted payload fields", func() {
			server := captureServer(`{"code":"00","desc":"ok","data":{"checkoutUrl":"https://pay.example/c/2","qrCode":"qr","paymentLinkId":"pl-2"}}`, http.StatusOK)
			defer server.Close()

			_, err := newClient(server.URL).CreatePaymentLink(context.Background(), paymentgateway.CreateLinkRequest{
				OrderCode:   99,
				Amount:      1000,
				Description: "short",
				ReturnURL:   "https://x/return",
				CancelURL:   "https://x/cancel",
				ItemName:    "short",
			})
			Expect(err).ToNot(HaveOccurred())

			canonical := signature.ProviderRequestCanonical(1000, "https://x/cancel", "short", 99, "https://x/return")
			expected, err := signature.Sign(canonical, "checksum-key")
			Expect(err).ToNot(HaveOccurred())
			Expect(received["signature"]).To(Equal(expected))
		})
	})

	Context("when the description exceeds the provider limit", func() {
		It("truncates before signing so the signature matches the wire value", func() {
			server := captureServer(`{"code":"00","desc":"ok","data":{"checkoutUrl":"https://pay.example/c/3","qrCode":"qr","paymentLinkId":"pl-3"}}`, http.StatusOK)
			defer server.Close()

			longDescription := "this description is far longer than twenty five characters"
			_, err := newClient(server.URL).CreatePaymentLink(context.Background(), paymentgateway.CreateLinkRequest{
				OrderCode:   7,
				Amount:      2000,
				Description: longDescription,
				ReturnURL:   "https://x/return",
				CancelURL:   "https://x/cancel",
				ItemName:    "item",
			})
			Expect(err).ToNot(HaveOccurred())

			truncated := longDescription[:paymentgateway.MaxDescriptionLength]
			Expect(received["description"]).To(Equal(truncated))

			canonical := signature.ProviderRequestCanonical(2000, "https://x/cancel", truncated, 7, "https://x/return")
			expected, err := signature.Sign(canonical, "checksum-key")
			Expect(err).ToNot(HaveOccurred())
			Expect(received["signature"]).To(Equal(expected))
		})

		It("truncates on characters so a diacritic at the limit survives intact", func() {
			server := captureServer(`{"code":"00","desc":"ok","data":{"checkoutUrl":"https://pay.example/c/4","qrCode":"qr","paymentLinkId":"pl-4"}}`, http.StatusOK)
			defer server.Close()

			// The 25th byte of this description lands inside the multi-byte
			// rune; a byte-wise cut would tear it apart.
			longDescription := "Dong phi ve sinh thang mậy hai nam 2026"
			_, err := newClient(server.URL).CreatePaymentLink(context.Background(), paymentgateway.CreateLinkRequest{
				OrderCode:   8,
				Amount:      3000,
				Description: longDescription,
				ReturnURL:   "https://x/return",
				CancelURL:   "https://x/cancel",
				ItemName:    "item",
			})
			Expect(err).ToNot(HaveOccurred())

			truncated := string([]rune(longDescription)[:paymentgateway.MaxDescriptionLength])
			Expect(truncated).To(Equal("Dong phi ve sinh thang mậ"))
			Expect(received["description"]).To(Equal(truncated))
			Expect(utf8.ValidString(received["description"].(string))).To(BeTrue())

			canonical := signature.ProviderRequestCanonical(3000, "https://x/cancel", truncated, 8, "https://x/return")
			expected, err := signature.Sign(canonical, "checksum-key")
			Expect(err).ToNot(HaveOccurred())
			Expect(received["signature"]).To(Equal(expected))
		})
	})

	Context("when the provider rejects the request", func() {
		It("treats a non-success envelope code as a protocol error", func() {
			server := captureServer(`{"code":"401","desc":"invalid key","data":null}`, http.StatusOK)
			defer server.Close()

			_, err := newClient(server.URL).CreatePaymentLink(context.Background(), paymentgateway.CreateLinkRequest{
				OrderCode: 1, Amount: 100, Description: "d", ReturnURL: "r", CancelURL: "c", ItemName: "i",
			})

			appErr, ok := errors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(errors.ErrCodeProviderProtocol))
		})

		It("treats a success envelope without checkoutUrl as a protocol error", func() {
			server := captureServer(`{"code":"00","desc":"ok","data":{"qrCode":"qr"}}`, http.StatusOK)
			defer server.Close()

			_, err := newClient(server.URL).CreatePaymentLink(context.Background(), paymentgateway.CreateLinkRequest{
				OrderCode: 1, Amount: 100, Description: "d", ReturnURL: "r", CancelURL: "c", ItemName: "i",
			})

			appErr, ok := errors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(errors.ErrCodeProviderProtocol))
		})

		It("maps a non-200 status to provider unavailable", func() {
			server := captureServer(`{"error":"upstream"}`, http.StatusBadGateway)
			defer server.Close()

			_, err := newClient(server.URL).CreatePaymentLink(context.Background(), paymentgateway.CreateLinkRequest{
				OrderCode: 1, Amount: 100, Description: "d", ReturnURL: "r", CancelURL: "c", ItemName: "i",
			})

			appErr, ok := errors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(errors.ErrCodeProviderUnavailable))
		})
	})

	Context("when the provider is unreachable", func() {
		It("maps the transport failure to provider unavailable", func() {
			server := captureServer(`{}`, http.StatusOK)
			server.Close()

			_, err := newClient(server.URL).CreatePaymentLink(context.Background(), paymentgateway.CreateLinkRequest{
				OrderCode: 1, Amount: 100, Description: "d", ReturnURL: "r", CancelURL: "c", ItemName: "i",
			})

			appErr, ok := errors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(errors.ErrCodeProviderUnavailable))
		})
	})

	Context("when the checksum key is missing", func() {
		It("fails before any network call", func() {
			client := paymentgateway.NewClient(paymentgateway.Config{
				BaseURL:  "http://127.0.0.1:0",
				ClientID: "c", APIKey: "a", ChecksumKey: "",
			}, logger)

			_, err := client.CreatePaymentLink(context.Background(), paymentgateway.CreateLinkRequest{
				OrderCode: 1, Amount: 100, Description: "d", ReturnURL: "r", CancelURL: "c", ItemName: "i",
			})

			appErr, ok := errors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(errors.ErrorTypeInternal))
		})
	})
})

var _ = Describe("QuickLinkBuilder", func() {
	newBuilder := func(cfg paymentgateway.QuickLinkConfig) *paymentgateway.QuickLinkBuilder {
		return paymentgateway.NewQuickLinkBuilder(cfg)
	}

	It("takes the BIN from account numbers that embed one", func() {
		builder := newBuilder(paymentgateway.QuickLinkConfig{
			ReceiverAccountNo:   "9704221111222233",
			ReceiverAccountName: "TO DAN PHO 7",
			BankBIN:             "970436",
		})

		url := builder.BuildImageURL("", "", "gop quy", 50000)
		Expect(url).To(HavePrefix("https://api.vietqr.io/image/970422-9704221111222233-compact2.jpg"))
	})

	It("redirects to a caller-supplied receiver and resolves its BIN", func() {
		builder := newBuilder(paymentgateway.QuickLinkConfig{
			ReceiverAccountNo:   "0011223344",
			ReceiverAccountName: "TO DAN PHO 7",
			BankBIN:             "970436",
		})

		url := builder.BuildImageURL("9704229998887776", "QUY KHUYEN HOC", "gop quy", 25000)
		Expect(url).To(HavePrefix("https://api.vietqr.io/image/970422-9704229998887776-compact2.jpg"))
		Expect(url).To(ContainSubstring("accountName=QUY+KHUYEN+HOC"))
	})

	It("falls back to the configured BIN for other account numbers", func() {
		builder := newBuilder(paymentgateway.QuickLinkConfig{
			ReceiverAccountNo:   "0011223344",
			ReceiverAccountName: "TO DAN PHO 7",
			BankBIN:             "970436",
		})

		url := builder.BuildImageURL("", "", "gop quy", 50000)
		Expect(url).To(HavePrefix("https://api.vietqr.io/image/970436-0011223344-compact2.jpg"))
	})

	It("escapes the description and account name query values", func() {
		builder := newBuilder(paymentgateway.QuickLinkConfig{
			ReceiverAccountNo:   "0011223344",
			ReceiverAccountName: "TO DAN PHO 7",
			BankBIN:             "970436",
		})

		url := builder.BuildImageURL("", "", "Thanh toan khoan thu 3", 120000)
		Expect(url).To(ContainSubstring("amount=120000"))
		Expect(url).To(ContainSubstring("addInfo=Thanh+toan+khoan+thu+3"))
		Expect(url).To(ContainSubstring("accountName=TO+DAN+PHO+7"))
	})

	It("honors a configured template id", func() {
		builder := newBuilder(paymentgateway.QuickLinkConfig{
			ReceiverAccountNo:   "0011223344",
			ReceiverAccountName: "X",
			BankBIN:             "970436",
			TemplateID:          "qr_only",
		})

		url := builder.BuildImageURL("", "", "d", 1)
		Expect(url).To(ContainSubstring("-qr_only.jpg"))
	})
})
