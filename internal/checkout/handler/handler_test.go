package handler

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tecnoshop/checkout-service/internal/checkout/dto"
	"github.com/tecnoshop/checkout-service/internal/model"
	"github.com/tecnoshop/checkout-service/pkg/apperror"
	"github.com/tecnoshop/checkout-service/pkg/logger"
	"github.com/tecnoshop/checkout-service/pkg/middleware"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

type stubUseCase struct {
	lastInput      *dto.CheckoutInput
	lastCredential string
	result         *dto.CheckoutResult
	order          *model.Order
	err            error
}

func (s *stubUseCase) Checkout(ctx context.Context, input *dto.CheckoutInput) (*dto.CheckoutResult, error) {
	s.lastInput = input
	return s.result, s.err
}

func (s *stubUseCase) GetOrder(ctx context.Context, credential, orderID string) (*model.Order, error) {
	s.lastCredential = credential
	return s.order, s.err
}

func dial(t *testing.T, uc *stubUseCase) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		middleware.ContextInterceptor(),
		middleware.LoggingInterceptor(logger.NewNop()),
	))
	RegisterCheckoutServiceServer(srv, NewCheckoutHandler(uc, logger.NewNop()))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func invoke(ctx context.Context, conn *grpc.ClientConn, method string, req map[string]any) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	err = conn.Invoke(ctx, "/"+ServiceName+"/"+method, in, out)
	return out, err
}

func TestCheckout_MapsRequestAndResponse(t *testing.T) {
	uc := &stubUseCase{result: &dto.CheckoutResult{
		OrderID:              "o1",
		Total:                200,
		TotalDisplay:         "2.00",
		Currency:             "mxn",
		PaymentClientSecret:  "pi_secret",
		PaymentClientSecrets: map[string]string{"s1": "pi_secret"},
	}}
	conn := dial(t, uc)

	ctx := metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer tok-123")
	out, err := invoke(ctx, conn, "Checkout", map[string]any{
		"line_items":         []any{map[string]any{"product_id": "p1", "quantity": 2}},
		"payment_method":     "card",
		"payment_method_ref": "pm_card_visa",
		"shipping_address":   "Calle 5",
		"idempotency_key":    "cart-1",
	})
	require.NoError(t, err)

	require.NotNil(t, uc.lastInput)
	assert.Equal(t, "tok-123", uc.lastInput.Credential)
	assert.Equal(t, model.PaymentMethodCard, uc.lastInput.PaymentMethod)
	require.Len(t, uc.lastInput.LineItems, 1)
	assert.EqualValues(t, 2, uc.lastInput.LineItems[0].Quantity)
	assert.Equal(t, "cart-1", uc.lastInput.IdempotencyKey)

	fields := out.GetFields()
	assert.Equal(t, "o1", fields["order_id"].GetStringValue())
	assert.EqualValues(t, 200, fields["total"].GetNumberValue())
	assert.Equal(t, "pi_secret", fields["payment_client_secret"].GetStringValue())
	assert.False(t, fields["replayed"].GetBoolValue())
}

func TestCheckout_FractionalQuantityIsInvalidArgument(t *testing.T) {
	uc := &stubUseCase{}
	conn := dial(t, uc)

	_, err := invoke(context.Background(), conn, "Checkout", map[string]any{
		"line_items": []any{map[string]any{"product_id": "p1", "quantity": 1.5}},
	})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Nil(t, uc.lastInput)
}

func TestCheckout_InsufficientStockStatus(t *testing.T) {
	uc := &stubUseCase{err: apperror.InsufficientStock("p1", 5, 10)}
	conn := dial(t, uc)

	ctx := metadata.AppendToOutgoingContext(context.Background(), "accept-language", "es-MX,es;q=0.9")
	_, err := invoke(ctx, conn, "Checkout", map[string]any{})

	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.FailedPrecondition, st.Code())
	assert.Contains(t, st.Message(), "Stock insuficiente")
	assert.Contains(t, st.Message(), "p1")

	require.Len(t, st.Details(), 1)
	info, ok := st.Details()[0].(*errdetails.ErrorInfo)
	require.True(t, ok)
	assert.Equal(t, string(apperror.KindInsufficientStock), info.Reason)
	assert.Equal(t, "5", info.Metadata["available"])
	assert.Equal(t, "10", info.Metadata["requested"])
}

func TestCodeFor(t *testing.T) {
	cases := map[apperror.Kind]codes.Code{
		apperror.KindUnauthenticated:             codes.Unauthenticated,
		apperror.KindInvalidCredential:           codes.Unauthenticated,
		apperror.KindInvalidRequest:              codes.InvalidArgument,
		apperror.KindProductNotFound:             codes.NotFound,
		apperror.KindOrderNotFound:               codes.NotFound,
		apperror.KindInsufficientStock:           codes.FailedPrecondition,
		apperror.KindPaymentAccountNotConfigured: codes.FailedPrecondition,
		apperror.KindPaymentDeclined:             codes.Aborted,
		apperror.KindConflict:                    codes.AlreadyExists,
		apperror.KindGatewayError:                codes.Unavailable,
		apperror.KindPersistenceError:            codes.Internal,
		apperror.KindInternal:                    codes.Internal,
	}
	for kind, want := range cases {
		assert.Equal(t, want, codeFor(kind), kind)
	}
}

func TestGetOrder(t *testing.T) {
	auth := "ord_a1"
	uc := &stubUseCase{order: &model.Order{
		ID:                     "o1",
		BuyerID:                "u1",
		PaymentMethod:          model.PaymentMethodCard,
		Currency:               "mxn",
		Total:                  300,
		PaymentAuthorizationID: &auth,
		CreatedAt:              time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		LineItems:              []model.OrderLineItem{{ProductID: "p1", StoreID: "s1", Quantity: 3, UnitPrice: 100, Subtotal: 300}},
	}}
	conn := dial(t, uc)

	ctx := metadata.AppendToOutgoingContext(context.Background(), "x-session-token", "tok-9")
	out, err := invoke(ctx, conn, "GetOrder", map[string]any{"order_id": "o1"})
	require.NoError(t, err)
	assert.Equal(t, "tok-9", uc.lastCredential)
	assert.Equal(t, "3.00", out.GetFields()["total_display"].GetStringValue())
	assert.Equal(t, "ord_a1", out.GetFields()["payment_authorization_id"].GetStringValue())
	assert.Len(t, out.GetFields()["line_items"].GetListValue().GetValues(), 1)
}

func TestGetOrder_NotFound(t *testing.T) {
	conn := dial(t, &stubUseCase{err: apperror.New(apperror.KindOrderNotFound, "order not found")})

	_, err := invoke(context.Background(), conn, "GetOrder", map[string]any{"order_id": "nope"})
	st, _ := status.FromError(err)
	assert.Equal(t, codes.NotFound, st.Code())
	assert.Equal(t, "Order not found.", st.Message())
}
