// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var accountOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "memorec_account_operations_total",
	Help: "Total account operations by operation and result",
}, []string{"op", "result"})

// IncAccountOperation counts an account operation.
// op ∈ {register,login,reset,update,unknown}; result ∈ {ok,rejected,error}
func IncAccountOperation(op, result string) {
	accountOperationsTotal.WithLabelValues(normalizeAccountOp(op), normalizeAccountResult(result)).Inc()
}

func normalizeAccountOp(op string) string {
	switch o := strings.ToLower(strings.TrimSpace(op)); o {
	case "register", "login", "reset", "update":
		return o
	default:
		return "unknown"
	}
}

func normalizeAccountResult(result string) string {
	switch r := strings.ToLower(strings.TrimSpace(result)); r {
	case "ok", "rejected":
		return r
	default:
		return "error"
	}
}
