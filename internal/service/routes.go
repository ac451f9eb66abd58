package service

import (
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api/apiconnect"
)

// PublicProcedures are served without a bearer token.
var PublicProcedures = []string{
	apiconnect.AuthServiceRegisterProcedure,
	apiconnect.AuthServiceLoginProcedure,
	apiconnect.GroupServiceCheckInviteProcedure,
}

// Deps are the collaborators the RPC services are built from.
type Deps struct {
	Ledger        *ledger.Ledger
	Authenticator auth.Authenticator
	JWT           *auth.JWTManager
	Users         storage.UserStore
}

// Mount registers the auth, group and ledger services on mux.
func Mount(mux *http.ServeMux, d Deps) {
	interceptors := connect.WithInterceptors(
		metrics.Interceptor(),
		middleware.RequireAuth(d.JWT, PublicProcedures...),
		middleware.LoggingInterceptor(),
	)

	authPath, authHandler := apiconnect.NewAuthServiceHandler(
		NewAuthService(d.Authenticator, d.JWT, d.Users), interceptors)
	mux.Handle(authPath, authHandler)

	groupPath, groupHandler := apiconnect.NewGroupServiceHandler(NewGroupService(d.Ledger), interceptors)
	mux.Handle(groupPath, groupHandler)

	ledgerPath, ledgerHandler := apiconnect.NewLedgerServiceHandler(NewLedgerService(d.Ledger), interceptors)
	mux.Handle(ledgerPath, ledgerHandler)
}
