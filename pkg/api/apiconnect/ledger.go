package apiconnect

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/pkg/api"
)

// LedgerServiceName is the fully-qualified name of the LedgerService service.
const LedgerServiceName = "splitledger.v1.LedgerService"

// Procedure names, usable for routing and interceptor checks.
const (
	LedgerServiceCreateExpenseProcedure     = "/splitledger.v1.LedgerService/CreateExpense"
	LedgerServiceSetExpenseGroupProcedure   = "/splitledger.v1.LedgerService/SetExpenseGroup"
	LedgerServiceDeleteExpenseProcedure     = "/splitledger.v1.LedgerService/DeleteExpense"
	LedgerServiceSplitExpenseProcedure      = "/splitledger.v1.LedgerService/SplitExpense"
	LedgerServiceListExpenseSplitsProcedure = "/splitledger.v1.LedgerService/ListExpenseSplits"
	LedgerServiceSettleSplitProcedure       = "/splitledger.v1.LedgerService/SettleSplit"
	LedgerServiceGetUserBalancesProcedure   = "/splitledger.v1.LedgerService/GetUserBalances"
	LedgerServiceGetGroupBalancesProcedure  = "/splitledger.v1.LedgerService/GetGroupBalances"
	LedgerServiceGetMySplitsProcedure       = "/splitledger.v1.LedgerService/GetMySplits"
)

// LedgerServiceClient is a client for the splitledger.v1.LedgerService service.
type LedgerServiceClient interface {
	CreateExpense(context.Context, *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error)
	SetExpenseGroup(context.Context, *connect.Request[api.SetExpenseGroupRequest]) (*connect.Response[api.SetExpenseGroupResponse], error)
	DeleteExpense(context.Context, *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error)
	SplitExpense(context.Context, *connect.Request[api.SplitExpenseRequest]) (*connect.Response[api.SplitExpenseResponse], error)
	ListExpenseSplits(context.Context, *connect.Request[api.ListExpenseSplitsRequest]) (*connect.Response[api.ListExpenseSplitsResponse], error)
	SettleSplit(context.Context, *connect.Request[api.SettleSplitRequest]) (*connect.Response[api.SettleSplitResponse], error)
	GetUserBalances(context.Context, *connect.Request[api.GetUserBalancesRequest]) (*connect.Response[api.GetUserBalancesResponse], error)
	GetGroupBalances(context.Context, *connect.Request[api.GetGroupBalancesRequest]) (*connect.Response[api.GetGroupBalancesResponse], error)
	GetMySplits(context.Context, *connect.Request[api.GetMySplitsRequest]) (*connect.Response[api.GetMySplitsResponse], error)
}

// NewLedgerServiceClient constructs a client for LedgerServiceName at baseURL.
func NewLedgerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) LedgerServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)
	c := &ledgerServiceClient{}
	c.createExpense = connect.NewClient[api.CreateExpenseRequest, api.CreateExpenseResponse](httpClient, baseURL+LedgerServiceCreateExpenseProcedure, opts...)
	c.setExpenseGroup = connect.NewClient[api.SetExpenseGroupRequest, api.SetExpenseGroupResponse](httpClient, baseURL+LedgerServiceSetExpenseGroupProcedure, opts...)
	c.deleteExpense = connect.NewClient[api.DeleteExpenseRequest, api.DeleteExpenseResponse](httpClient, baseURL+LedgerServiceDeleteExpenseProcedure, opts...)
	c.splitExpense = connect.NewClient[api.SplitExpenseRequest, api.SplitExpenseResponse](httpClient, baseURL+LedgerServiceSplitExpenseProcedure, opts...)
	c.listExpenseSplits = connect.NewClient[api.ListExpenseSplitsRequest, api.ListExpenseSplitsResponse](httpClient, baseURL+LedgerServiceListExpenseSplitsProcedure, opts...)
	c.settleSplit = connect.NewClient[api.SettleSplitRequest, api.SettleSplitResponse](httpClient, baseURL+LedgerServiceSettleSplitProcedure, opts...)
	c.getUserBalances = connect.NewClient[api.GetUserBalancesRequest, api.GetUserBalancesResponse](httpClient, baseURL+LedgerServiceGetUserBalancesProcedure, opts...)
	c.getGroupBalances = connect.NewClient[api.GetGroupBalancesRequest, api.GetGroupBalancesResponse](httpClient, baseURL+LedgerServiceGetGroupBalancesProcedure, opts...)
	c.getMySplits = connect.NewClient[api.GetMySplitsRequest, api.GetMySplitsResponse](httpClient, baseURL+LedgerServiceGetMySplitsProcedure, opts...)
	return c
}

type ledgerServiceClient struct {
	createExpense     *connect.Client[api.CreateExpenseRequest, api.CreateExpenseResponse]
	setExpenseGroup   *connect.Client[api.SetExpenseGroupRequest, api.SetExpenseGroupResponse]
	deleteExpense     *connect.Client[api.DeleteExpenseRequest, api.DeleteExpenseResponse]
	splitExpense      *connect.Client[api.SplitExpenseRequest, api.SplitExpenseResponse]
	listExpenseSplits *connect.Client[api.ListExpenseSplitsRequest, api.ListExpenseSplitsResponse]
	settleSplit       *connect.Client[api.SettleSplitRequest, api.SettleSplitResponse]
	getUserBalances   *connect.Client[api.GetUserBalancesRequest, api.GetUserBalancesResponse]
	getGroupBalances  *connect.Client[api.GetGroupBalancesRequest, api.GetGroupBalancesResponse]
	getMySplits       *connect.Client[api.GetMySplitsRequest, api.GetMySplitsResponse]
}

func (c *ledgerServiceClient) CreateExpense(ctx context.Context, req *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error) {
	return c.createExpense.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) SetExpenseGroup(ctx context.Context, req *connect.Request[api.SetExpenseGroupRequest]) (*connect.Response[api.SetExpenseGroupResponse], error) {
	return c.setExpenseGroup.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) DeleteExpense(ctx context.Context, req *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error) {
	return c.deleteExpense.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) SplitExpense(ctx context.Context, req *connect.Request[api.SplitExpenseRequest]) (*connect.Response[api.SplitExpenseResponse], error) {
	return c.splitExpense.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) ListExpenseSplits(ctx context.Context, req *connect.Request[api.ListExpenseSplitsRequest]) (*connect.Response[api.ListExpenseSplitsResponse], error) {
	return c.listExpenseSplits.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) SettleSplit(ctx context.Context, req *connect.Request[api.SettleSplitRequest]) (*connect.Response[api.SettleSplitResponse], error) {
	return c.settleSplit.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetUserBalances(ctx context.Context, req *connect.Request[api.GetUserBalancesRequest]) (*connect.Response[api.GetUserBalancesResponse], error) {
	return c.getUserBalances.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetGroupBalances(ctx context.Context, req *connect.Request[api.GetGroupBalancesRequest]) (*connect.Response[api.GetGroupBalancesResponse], error) {
	return c.getGroupBalances.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetMySplits(ctx context.Context, req *connect.Request[api.GetMySplitsRequest]) (*connect.Response[api.GetMySplitsResponse], error) {
	return c.getMySplits.CallUnary(ctx, req)
}

// LedgerServiceHandler is implemented by the server side of LedgerServiceName.
// LedgerService manages expenses, splits, settlement and balances.
type LedgerServiceHandler interface {
	CreateExpense(context.Context, *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error)
	SetExpenseGroup(context.Context, *connect.Request[api.SetExpenseGroupRequest]) (*connect.Response[api.SetExpenseGroupResponse], error)
	DeleteExpense(context.Context, *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error)
	SplitExpense(context.Context, *connect.Request[api.SplitExpenseRequest]) (*connect.Response[api.SplitExpenseResponse], error)
	ListExpenseSplits(context.Context, *connect.Request[api.ListExpenseSplitsRequest]) (*connect.Response[api.ListExpenseSplitsResponse], error)
	SettleSplit(context.Context, *connect.Request[api.SettleSplitRequest]) (*connect.Response[api.SettleSplitResponse], error)
	GetUserBalances(context.Context, *connect.Request[api.GetUserBalancesRequest]) (*connect.Response[api.GetUserBalancesResponse], error)
	GetGroupBalances(context.Context, *connect.Request[api.GetGroupBalancesRequest]) (*connect.Response[api.GetGroupBalancesResponse], error)
	GetMySplits(context.Context, *connect.Request[api.GetMySplitsRequest]) (*connect.Response[api.GetMySplitsResponse], error)
}

// NewLedgerServiceHandler builds an HTTP handler for svc and returns the path to
// mount it on.
func NewLedgerServiceHandler(svc LedgerServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)
	createExpenseHandler := connect.NewUnaryHandler(LedgerServiceCreateExpenseProcedure, svc.CreateExpense, opts...)
	setExpenseGroupHandler := connect.NewUnaryHandler(LedgerServiceSetExpenseGroupProcedure, svc.SetExpenseGroup, opts...)
	deleteExpenseHandler := connect.NewUnaryHandler(LedgerServiceDeleteExpenseProcedure, svc.DeleteExpense, opts...)
	splitExpenseHandler := connect.NewUnaryHandler(LedgerServiceSplitExpenseProcedure, svc.SplitExpense, opts...)
	listExpenseSplitsHandler := connect.NewUnaryHandler(LedgerServiceListExpenseSplitsProcedure, svc.ListExpenseSplits, opts...)
	settleSplitHandler := connect.NewUnaryHandler(LedgerServiceSettleSplitProcedure, svc.SettleSplit, opts...)
	getUserBalancesHandler := connect.NewUnaryHandler(LedgerServiceGetUserBalancesProcedure, svc.GetUserBalances, opts...)
	getGroupBalancesHandler := connect.NewUnaryHandler(LedgerServiceGetGroupBalancesProcedure, svc.GetGroupBalances, opts...)
	getMySplitsHandler := connect.NewUnaryHandler(LedgerServiceGetMySplitsProcedure, svc.GetMySplits, opts...)
	return "/" + LedgerServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case LedgerServiceCreateExpenseProcedure:
			createExpenseHandler.ServeHTTP(w, r)
		case LedgerServiceSetExpenseGroupProcedure:
			setExpenseGroupHandler.ServeHTTP(w, r)
		case LedgerServiceDeleteExpenseProcedure:
			deleteExpenseHandler.ServeHTTP(w, r)
		case LedgerServiceSplitExpenseProcedure:
			splitExpenseHandler.ServeHTTP(w, r)
		case LedgerServiceListExpenseSplitsProcedure:
			listExpenseSplitsHandler.ServeHTTP(w, r)
		case LedgerServiceSettleSplitProcedure:
			settleSplitHandler.ServeHTTP(w, r)
		case LedgerServiceGetUserBalancesProcedure:
			getUserBalancesHandler.ServeHTTP(w, r)
		case LedgerServiceGetGroupBalancesProcedure:
			getGroupBalancesHandler.ServeHTTP(w, r)
		case LedgerServiceGetMySplitsProcedure:
			getMySplitsHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// UnimplementedLedgerServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedLedgerServiceHandler struct{}

func (UnimplementedLedgerServiceHandler) CreateExpense(context.Context, *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitledger.v1.LedgerService.CreateExpense is not implemented"))
}

func (UnimplementedLedgerServiceHandler) SetExpenseGroup(context.Context, *connect.Request[api.SetExpenseGroupRequest]) (*connect.Response[api.SetExpenseGroupResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitledger.v1.LedgerService.SetExpenseGroup is not implemented"))
}

func (UnimplementedLedgerServiceHandler) DeleteExpense(context.Context, *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitledger.v1.LedgerService.DeleteExpense is not implemented"))
}

func (UnimplementedLedgerServiceHandler) SplitExpense(context.Context, *connect.Request[api.SplitExpenseRequest]) (*connect.Response[api.SplitExpenseResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitledger.v1.LedgerService.SplitExpense is not implemented"))
}

func (UnimplementedLedgerServiceHandler) ListExpenseSplits(context.Context, *connect.Request[api.ListExpenseSplitsRequest]) (*connect.Response[api.ListExpenseSplitsResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitledger.v1.LedgerService.ListExpenseSplits is not implemented"))
}

func (UnimplementedLedgerServiceHandler) SettleSplit(context.Context, *connect.Request[api.SettleSplitRequest]) (*connect.Response[api.SettleSplitResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitledger.v1.LedgerService.SettleSplit is not implemented"))
}

func (UnimplementedLedgerServiceHandler) GetUserBalances(context.Context, *connect.Request[api.GetUserBalancesRequest]) (*connect.Response[api.GetUserBalancesResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitledger.v1.LedgerService.GetUserBalances is not implemented"))
}

func (UnimplementedLedgerServiceHandler) GetGroupBalances(context.Context, *connect.Request[api.GetGroupBalancesRequest]) (*connect.Response[api.GetGroupBalancesResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitledger.v1.LedgerService.GetGroupBalances is not implemented"))
}

func (UnimplementedLedgerServiceHandler) GetMySplits(context.Context, *connect.Request[api.GetMySplitsRequest]) (*connect.Response[api.GetMySplitsResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitledger.v1.LedgerService.GetMySplits is not implemented"))
}
