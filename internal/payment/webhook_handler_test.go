package payment_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	feeDatamodel "github.com/quanlynhankhau/registry-api/internal/core/datamodel/fee"
	householdDatamodel "github.com/quanlynhankhau/registry-api/internal/core/datamodel/household"
	paymentDatamodel "github.com/quanlynhankhau/registry-api/internal/core/datamodel/payment"
	"github.com/quanlynhankhau/registry-api/internal/core/events"
	paymentPkg "github.com/quanlynhankhau/registry-api/internal/payment"
	"github.com/quanlynhankhau/registry-api/internal/signature"
)

var _ = Describe("WebhookHandler", func() {
	var (
		handler *paymentPkg.WebhookHandler
		repo    *mockPaymentRepository
	)

	BeforeEach(func() {
		repo = newMockPaymentRepository()
		fees := &mockFeeReader{fees: map[int64]*feeDatamodel.FeeObligation{
			3: {ID: 3, Name: "Phi ve sinh 2026", Amount: 120000},
		}}
		households := &mockHouseholdReader{households: map[int64]*householdDatamodel.Household{}}
		reconciler := paymentPkg.NewReconciler(paymentPkg.ReconcilerConfig{
			ProviderSecret:  providerSecret,
			QuickLinkSecret: quickLinkSecret,
		}, repo, fees, households, events.NewEventBus(testLogger()), testLogger())
		handler = paymentPkg.NewWebhookHandler(reconciler, testLogger())

		Expect(repo.Create(context.Background(), &paymentDatamodel.Payment{
			PaymentID:       "pay-1",
			OrderCode:       int64Ptr(1234),
			FeeObligationID: 3,
			Amount:          50000,
			Status:          paymentPkg.StatusPending,
		})).To(Succeed())
	})

	Describe("ProviderWebhook", func() {
		providerBody := func(orderCode, amount int64) (string, string) {
			canonical := signature.ProviderWebhookCanonical(orderCode, amount, "Phi ve sinh", "0123456789", "2026-08-01 10:00:00")
			sig, err := signature.Sign(canonical, providerSecret)
			Expect(err).ToNot(HaveOccurred())
			body := fmt.Sprintf(`{"code":"00","desc":"success","data":{"orderCode":%d,"amount":%d,"description":"Phi ve sinh","accountNumber":"0123456789","accountName":"NGUYEN VAN A","transactionDateTime":"2026-08-01 10:00:00","code":"00"}}`,
				orderCode, amount)
			return body, sig
		}

		It("applies a delivery signed via the provider header", func() {
			body, sig := providerBody(1234, 50000)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", strings.NewReader(body))
			req.Header.Set(paymentPkg.HeaderProviderSignature, sig)
			recorder := httptest.NewRecorder()

			handler.ProviderWebhook(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(repo.payments["pay-1"].Status).To(Equal(paymentPkg.StatusPaid))

			var response map[string]string
			Expect(json.Unmarshal(recorder.Body.Bytes(), &response)).To(Succeed())
			Expect(response["status"]).To(Equal("received"))
		})

		It("falls back to the signature embedded in the body", func() {
			canonical := signature.ProviderWebhookCanonical(1234, 50000, "Phi ve sinh", "0123456789", "2026-08-01 10:00:00")
			sig, err := signature.Sign(canonical, providerSecret)
			Expect(err).ToNot(HaveOccurred())
			body := fmt.Sprintf(`{"code":"00","desc":"success","signature":%q,"data":{"orderCode":1234,"amount":50000,"description":"Phi ve sinh","accountNumber":"0123456789","transactionDateTime":"2026-08-01 10:00:00","code":"00"}}`, sig)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", strings.NewReader(body))
			recorder := httptest.NewRecorder()

			handler.ProviderWebhook(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(repo.payments["pay-1"].Status).To(Equal(paymentPkg.StatusPaid))
		})

		It("answers 200 for a parsed delivery with a bad signature, without applying it", func() {
			body, _ := providerBody(1234, 50000)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", strings.NewReader(body))
			req.Header.Set(paymentPkg.HeaderProviderSignature, "deadbeef")
			recorder := httptest.NewRecorder()

			handler.ProviderWebhook(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(repo.payments["pay-1"].Status).To(Equal(paymentPkg.StatusPending))
		})

		It("answers 400 for an unreadable body", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", strings.NewReader("{not json"))
			recorder := httptest.NewRecorder()

			handler.ProviderWebhook(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("QuickLinkWebhook", func() {
		BeforeEach(func() {
			Expect(repo.Create(context.Background(), &paymentDatamodel.Payment{
				PaymentID:       "pay-ql",
				FeeObligationID: 3,
				Amount:          30000,
				Status:          paymentPkg.StatusPending,
			})).To(Succeed())
		})

		It("applies a delivery signed via the generic header", func() {
			canonical := signature.QuickLinkWebhookCanonical("pay-ql", "paid", 30000, "txn-1")
			sig, err := signature.Sign(canonical, quickLinkSecret)
			Expect(err).ToNot(HaveOccurred())
			body := `{"paymentId":"pay-ql","status":"paid","amount":30000,"transactionId":"txn-1"}`
			req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/quick-link/webhook", strings.NewReader(body))
			req.Header.Set(paymentPkg.HeaderSignature, sig)
			recorder := httptest.NewRecorder()

			handler.QuickLinkWebhook(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(repo.payments["pay-ql"].Status).To(Equal(paymentPkg.StatusPaid))
		})

		It("answers 200 for an unsigned delivery without applying it", func() {
			body := `{"paymentId":"pay-ql","status":"paid","amount":30000}`
			req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/quick-link/webhook", strings.NewReader(body))
			recorder := httptest.NewRecorder()

			handler.QuickLinkWebhook(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(repo.payments["pay-ql"].Status).To(Equal(paymentPkg.StatusPending))
		})

		It("answers 400 for an unreadable body", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/quick-link/webhook", strings.NewReader("!!"))
			recorder := httptest.NewRecorder()

			handler.QuickLinkWebhook(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
		})
	})
})
