// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "splitledger"

var (
	GroupsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "groups_created_total",
		Help:      "Groups created.",
	})

	// InvitesIssued is labelled created or reused.
	InvitesIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "invites_issued_total",
		Help:      "InviteMember calls by outcome.",
	}, []string{"result"})

	// InvitesRedeemed is labelled joined, already_member or expired.
	InvitesRedeemed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "invites_redeemed_total",
		Help:      "AcceptInvite calls by outcome.",
	}, []string{"result"})

	SplitsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "splits_generated_total",
		Help:      "Split rows written, by policy.",
	}, []string{"policy"})

	SplitsSettled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "splits_settled_total",
		Help:      "Splits moved from unsettled to settled.",
	})

	BalanceOmissions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "balance_omissions_total",
		Help:      "Members left out of a group balance report.",
	})

	RPCDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "rpc_duration_seconds",
		Help:      "RPC latency by procedure and code.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"procedure", "code"})
)
