package payment_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/quanlynhankhau/registry-api/internal"
	feeDatamodel "github.com/quanlynhankhau/registry-api/internal/core/datamodel/fee"
	householdDatamodel "github.com/quanlynhankhau/registry-api/internal/core/datamodel/household"
	paymentDatamodel "github.com/quanlynhankhau/registry-api/internal/core/datamodel/payment"
	"github.com/quanlynhankhau/registry-api/internal/core/events"
	paymentPkg "github.com/quanlynhankhau/registry-api/internal/payment"
	"github.com/quanlynhankhau/registry-api/internal/signature"
)

const (
	providerSecret  = "provider-secret"
	quickLinkSecret = "quick-link-secret"
)

var _ = Describe("Reconciler", func() {
	var (
		reconciler *paymentPkg.Reconciler
		repo       *mockPaymentRepository
		fees       *mockFeeReader
		households *mockHouseholdReader
		eventBus   *events.EventBus
		paidEvents []*events.PaymentPaidEvent
		ledgerErr  error
	)

	seedPending := func(paymentID string, orderCode *int64, householdID *int64, amount int64) *paymentDatamodel.Payment {
		p := &paymentDatamodel.Payment{
			PaymentID:       paymentID,
			OrderCode:       orderCode,
			FeeObligationID: 3,
			HouseholdID:     householdID,
			Amount:          amount,
			Status:          paymentPkg.StatusPending,
		}
		Expect(repo.Create(context.Background(), p)).To(Succeed())
		return p
	}

	signedProviderWebhook := func(data paymentPkg.ProviderWebhookData) (paymentPkg.ProviderWebhookDTO, string) {
		canonical := signature.ProviderWebhookCanonical(
			data.OrderCode, data.Amount, data.Description, data.AccountNumber, data.TransactionDateTime)
		sig, err := signature.Sign(canonical, providerSecret)
		Expect(err).ToNot(HaveOccurred())
		return paymentPkg.ProviderWebhookDTO{Code: "00", Desc: "success", Data: &data}, sig
	}

	signedQuickLinkWebhook := func(dto paymentPkg.QuickLinkWebhookDTO) string {
		canonical := signature.QuickLinkWebhookCanonical(dto.PaymentID, dto.Status, dto.Amount, dto.TransactionID)
		sig, err := signature.Sign(canonical, quickLinkSecret)
		Expect(err).ToNot(HaveOccurred())
		return sig
	}

	newReconciler := func(cfg paymentPkg.ReconcilerConfig) *paymentPkg.Reconciler {
		return paymentPkg.NewReconciler(cfg, repo, fees, households, eventBus, testLogger())
	}

	BeforeEach(func() {
		repo = newMockPaymentRepository()
		fees = &mockFeeReader{fees: map[int64]*feeDatamodel.FeeObligation{
			3: {ID: 3, Name: "Phi ve sinh 2026", Amount: 120000},
		}}
		households = &mockHouseholdReader{households: map[int64]*householdDatamodel.Household{
			7: {ID: 7, Code: "HK-007", Address: "12 Tran Hung Dao"},
		}}
		paidEvents = nil
		ledgerErr = nil
		eventBus = events.NewEventBus(testLogger())
		eventBus.Subscribe(events.EventTypePaymentPaid, func(_ context.Context, event events.Event) error {
			if paid, ok := event.(*events.PaymentPaidEvent); ok {
				paidEvents = append(paidEvents, paid)
			}
			return ledgerErr
		})

		reconciler = newReconciler(paymentPkg.ReconcilerConfig{
			ProviderSecret:  providerSecret,
			QuickLinkSecret: quickLinkSecret,
		})
	})

	Describe("ReconcileProviderWebhook", func() {
		var data paymentPkg.ProviderWebhookData

		BeforeEach(func() {
			seedPending("pay-1", int64Ptr(1234), int64Ptr(7), 50000)
			data = paymentPkg.ProviderWebhookData{
				OrderCode:           1234,
				Amount:              50000,
				Description:         "Phi ve sinh",
				AccountNumber:       "0123456789",
				AccountName:         "NGUYEN VAN A",
				TransactionDateTime: "2026-08-01 10:00:00",
				Code:                "00",
			}
		})

		Context("with a valid signed paid delivery", func() {
			It("transitions the payment, records the notification, and bridges to the ledger", func() {
				dto, sig := signedProviderWebhook(data)

				Expect(reconciler.ReconcileProviderWebhook(context.Background(), dto, sig)).To(Succeed())

				stored := repo.payments["pay-1"]
				Expect(stored.Status).To(Equal(paymentPkg.StatusPaid))
				Expect(stored.PaidAt).ToNot(BeNil())
				Expect(*stored.PayerName).To(Equal("NGUYEN VAN A"))
				Expect(*stored.PayerAccount).To(Equal("0123456789"))
				Expect(stored.GatewayPayload).ToNot(BeEmpty())

				Expect(repo.notifications).To(HaveLen(1))
				notification := repo.notifications[0]
				Expect(notification.PaymentID).To(Equal("pay-1"))
				Expect(notification.FeeObligationLabel).To(Equal("Phi ve sinh 2026"))
				Expect(notification.HouseholdLabel).To(Equal("HK-007 - 12 Tran Hung Dao"))
				Expect(notification.PayerName).To(Equal("NGUYEN VAN A"))

				Expect(paidEvents).To(HaveLen(1))
				Expect(paidEvents[0].PaymentID).To(Equal("pay-1"))
				Expect(paidEvents[0].Amount).To(Equal(int64(50000)))
				Expect(*paidEvents[0].HouseholdID).To(Equal(int64(7)))
			})

			It("parses the provider transaction timestamp", func() {
				dto, sig := signedProviderWebhook(data)

				Expect(reconciler.ReconcileProviderWebhook(context.Background(), dto, sig)).To(Succeed())

				expected := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
				Expect(repo.payments["pay-1"].PaidAt.UTC()).To(Equal(expected))
			})
		})

		Context("with an invalid signature", func() {
			It("rejects the delivery without touching the payment", func() {
				dto, _ := signedProviderWebhook(data)

				err := reconciler.ReconcileProviderWebhook(context.Background(), dto, "deadbeef")

				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidSignature))
				Expect(repo.payments["pay-1"].Status).To(Equal(paymentPkg.StatusPending))
				Expect(paidEvents).To(BeEmpty())
			})
		})

		Context("with no data block", func() {
			It("returns a validation error", func() {
				err := reconciler.ReconcileProviderWebhook(context.Background(), paymentPkg.ProviderWebhookDTO{Code: "00"}, "sig")

				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
			})
		})

		Context("with an unknown order code", func() {
			It("drops the delivery without error", func() {
				data.OrderCode = 9999
				dto, sig := signedProviderWebhook(data)

				Expect(reconciler.ReconcileProviderWebhook(context.Background(), dto, sig)).To(Succeed())
				Expect(paidEvents).To(BeEmpty())
			})
		})

		Context("when the payment is already terminal", func() {
			It("ignores the replay without a second notification or event", func() {
				dto, sig := signedProviderWebhook(data)
				Expect(reconciler.ReconcileProviderWebhook(context.Background(), dto, sig)).To(Succeed())
				Expect(reconciler.ReconcileProviderWebhook(context.Background(), dto, sig)).To(Succeed())

				Expect(repo.notifications).To(HaveLen(1))
				Expect(paidEvents).To(HaveLen(1))
			})
		})

		Context("with a non-success provider code", func() {
			It("closes the payment as cancelled and publishes no paid event", func() {
				data.Code = "01"
				dto, sig := signedProviderWebhook(data)
				dto.Code = "01"

				Expect(reconciler.ReconcileProviderWebhook(context.Background(), dto, sig)).To(Succeed())
				Expect(repo.payments["pay-1"].Status).To(Equal(paymentPkg.StatusCancelled))
				Expect(repo.notifications).To(BeEmpty())
				Expect(paidEvents).To(BeEmpty())
			})
		})

		Context("when the webhook amount differs from the recorded payment", func() {
			It("still applies the transition with the recorded amount", func() {
				data.Amount = 60000
				dto, sig := signedProviderWebhook(data)

				Expect(reconciler.ReconcileProviderWebhook(context.Background(), dto, sig)).To(Succeed())
				Expect(repo.payments["pay-1"].Status).To(Equal(paymentPkg.StatusPaid))
				Expect(repo.payments["pay-1"].Amount).To(Equal(int64(50000)))
			})
		})

		Context("when the ledger bridge fails", func() {
			It("keeps the payment paid and reports success to the caller", func() {
				ledgerErr = errors.New("ledger insert failed")
				dto, sig := signedProviderWebhook(data)

				Expect(reconciler.ReconcileProviderWebhook(context.Background(), dto, sig)).To(Succeed())
				Expect(repo.payments["pay-1"].Status).To(Equal(paymentPkg.StatusPaid))
			})
		})

		Context("when the repository transition fails", func() {
			It("surfaces an internal error", func() {
				repo.transitionError = errors.New("connection reset")
				dto, sig := signedProviderWebhook(data)

				err := reconciler.ReconcileProviderWebhook(context.Background(), dto, sig)

				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Type).To(Equal(internal.ErrorTypeInternal))
			})
		})
	})

	Describe("ReconcileQuickLinkWebhook", func() {
		var dto paymentPkg.QuickLinkWebhookDTO

		BeforeEach(func() {
			seedPending("pay-ql", nil, int64Ptr(7), 30000)
			dto = paymentPkg.QuickLinkWebhookDTO{
				PaymentID:     "pay-ql",
				Status:        "PAID",
				Amount:        30000,
				TransactionID: "txn-1",
				PayerName:     "TRAN THI B",
				PayerAccount:  "0011223344",
			}
		})

		It("applies a signed paid delivery", func() {
			sig := signedQuickLinkWebhook(dto)

			Expect(reconciler.ReconcileQuickLinkWebhook(context.Background(), dto, sig)).To(Succeed())

			stored := repo.payments["pay-ql"]
			Expect(stored.Status).To(Equal(paymentPkg.StatusPaid))
			Expect(*stored.PayerName).To(Equal("TRAN THI B"))
			Expect(paidEvents).To(HaveLen(1))
		})

		It("uses the delivered paid timestamp when present", func() {
			paidAt := time.Date(2026, 8, 15, 9, 30, 0, 0, time.UTC)
			dto.PaidAt = &paidAt
			sig := signedQuickLinkWebhook(dto)

			Expect(reconciler.ReconcileQuickLinkWebhook(context.Background(), dto, sig)).To(Succeed())
			Expect(repo.payments["pay-ql"].PaidAt.UTC()).To(Equal(paidAt))
		})

		It("rejects an unsigned delivery by default", func() {
			err := reconciler.ReconcileQuickLinkWebhook(context.Background(), dto, "")

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidSignature))
			Expect(repo.payments["pay-ql"].Status).To(Equal(paymentPkg.StatusPending))
		})

		It("accepts an unsigned delivery when configured to", func() {
			reconciler = newReconciler(paymentPkg.ReconcilerConfig{
				ProviderSecret:         providerSecret,
				QuickLinkSecret:        quickLinkSecret,
				AllowUnsignedQuickLink: true,
			})

			Expect(reconciler.ReconcileQuickLinkWebhook(context.Background(), dto, "")).To(Succeed())
			Expect(repo.payments["pay-ql"].Status).To(Equal(paymentPkg.StatusPaid))
		})

		It("rejects a tampered signature even when unsigned deliveries are allowed", func() {
			reconciler = newReconciler(paymentPkg.ReconcilerConfig{
				ProviderSecret:         providerSecret,
				QuickLinkSecret:        quickLinkSecret,
				AllowUnsignedQuickLink: true,
			})

			err := reconciler.ReconcileQuickLinkWebhook(context.Background(), dto, "deadbeef")

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidSignature))
		})

		It("closes the payment for an expired status", func() {
			dto.Status = "EXPIRED"
			sig := signedQuickLinkWebhook(dto)

			Expect(reconciler.ReconcileQuickLinkWebhook(context.Background(), dto, sig)).To(Succeed())
			Expect(repo.payments["pay-ql"].Status).To(Equal(paymentPkg.StatusExpired))
			Expect(paidEvents).To(BeEmpty())
		})

		It("treats an unrecognized status as cancelled", func() {
			dto.Status = "whatever"
			sig := signedQuickLinkWebhook(dto)

			Expect(reconciler.ReconcileQuickLinkWebhook(context.Background(), dto, sig)).To(Succeed())
			Expect(repo.payments["pay-ql"].Status).To(Equal(paymentPkg.StatusCancelled))
		})

		It("requires a payment id", func() {
			dto.PaymentID = ""

			err := reconciler.ReconcileQuickLinkWebhook(context.Background(), dto, "sig")

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		It("drops a delivery for an unknown payment id", func() {
			dto.PaymentID = "missing"
			sig := signedQuickLinkWebhook(dto)

			Expect(reconciler.ReconcileQuickLinkWebhook(context.Background(), dto, sig)).To(Succeed())
			Expect(paidEvents).To(BeEmpty())
		})
	})
})
