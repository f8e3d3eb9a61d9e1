// Package stripe adapts Stripe PaymentIntents with connected-account
// destination charges to payment.Gateway.
package stripe

import (
	"context"
	"errors"

	sdk "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/tecnoshop/checkout-service/internal/payment"
	"github.com/tecnoshop/checkout-service/pkg/apperror"
)

type Config struct {
	SecretKey string
	ReturnURL string
	// Backend overrides the API backend; tests point it at an httptest server.
	Backend sdk.Backend
}

type Gateway struct {
	api       *client.API
	returnURL string
}

func NewGateway(cfg Config) *Gateway {
	var backends *sdk.Backends
	if cfg.Backend != nil {
		backends = &sdk.Backends{API: cfg.Backend, Connect: cfg.Backend, Uploads: cfg.Backend}
	}
	return &Gateway{
		api:       client.New(cfg.SecretKey, backends),
		returnURL: cfg.ReturnURL,
	}
}

func (g *Gateway) Authorize(ctx context.Context, req payment.AuthorizeRequest) (payment.AuthorizationResult, error) {
	params := &sdk.PaymentIntentParams{
		Amount:        sdk.Int64(req.AmountMinorUnits),
		Currency:      sdk.String(req.Currency),
		PaymentMethod: sdk.String(req.PaymentMethodRef),
		Confirm:       sdk.Bool(true),
		TransferData: &sdk.PaymentIntentTransferDataParams{
			Destination: sdk.String(req.DestinationAccountRef),
		},
	}
	if g.returnURL != "" {
		params.ReturnURL = sdk.String(g.returnURL)
	}
	params.Context = ctx
	params.SetIdempotencyKey(req.IdempotencyKey)
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		var stripeErr *sdk.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == sdk.ErrorTypeCard {
			res := payment.AuthorizationResult{Status: payment.StatusFailed, DeclineReason: string(stripeErr.Code)}
			if stripeErr.PaymentIntent != nil {
				res.AuthorizationID = stripeErr.PaymentIntent.ID
			}
			return res, nil
		}
		return payment.AuthorizationResult{}, apperror.Wrap(apperror.KindGatewayError, err, "create payment intent")
	}

	if replayed(pi.LastResponse) {
		// A replayed response shows the intent as first created. A retry of
		// an attempt whose payment was already voided must see it as it is now.
		getParams := &sdk.PaymentIntentParams{}
		getParams.Context = ctx
		getParams.AddExpand("latest_charge")
		pi, err = g.api.PaymentIntents.Get(pi.ID, getParams)
		if err != nil {
			return payment.AuthorizationResult{}, apperror.Wrap(apperror.KindGatewayError, err, "refresh replayed payment intent")
		}
		if pi.LatestCharge != nil && pi.LatestCharge.Refunded {
			return payment.AuthorizationResult{AuthorizationID: pi.ID, Status: payment.StatusFailed, DeclineReason: "refunded"}, nil
		}
	}

	return fromIntent(pi)
}

func replayed(resp *sdk.APIResponse) bool {
	return resp != nil && resp.Header.Get("Idempotent-Replayed") == "true"
}

func (g *Gateway) Void(ctx context.Context, auth payment.AuthorizationResult, idempotencyKey string) error {
	if auth.AuthorizationID == "" {
		return nil
	}

	if auth.Captured {
		params := &sdk.RefundParams{PaymentIntent: sdk.String(auth.AuthorizationID)}
		params.Context = ctx
		params.SetIdempotencyKey(idempotencyKey + ":refund")
		_, err := g.api.Refunds.New(params)
		return err
	}

	params := &sdk.PaymentIntentCancelParams{}
	params.Context = ctx
	params.SetIdempotencyKey(idempotencyKey + ":cancel")
	_, err := g.api.PaymentIntents.Cancel(auth.AuthorizationID, params)
	return err
}

func fromIntent(pi *sdk.PaymentIntent) (payment.AuthorizationResult, error) {
	res := payment.AuthorizationResult{
		AuthorizationID: pi.ID,
		ClientSecret:    pi.ClientSecret,
	}

	switch pi.Status {
	case sdk.PaymentIntentStatusSucceeded:
		res.Status = payment.StatusSucceeded
		res.Captured = true
	case sdk.PaymentIntentStatusRequiresCapture:
		res.Status = payment.StatusSucceeded
	case sdk.PaymentIntentStatusProcessing,
		sdk.PaymentIntentStatusRequiresAction,
		sdk.PaymentIntentStatusRequiresConfirmation:
		res.Status = payment.StatusPending
	case sdk.PaymentIntentStatusRequiresPaymentMethod, sdk.PaymentIntentStatusCanceled:
		res.Status = payment.StatusFailed
		if pi.LastPaymentError != nil {
			res.DeclineReason = string(pi.LastPaymentError.Code)
		} else if pi.Status == sdk.PaymentIntentStatusCanceled {
			res.DeclineReason = "canceled"
		}
	default:
		return res, apperror.Newf(apperror.KindGatewayError, "unexpected payment intent status %q", pi.Status)
	}
	return res, nil
}
