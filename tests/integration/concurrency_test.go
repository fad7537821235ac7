package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"offline-pay/internal/core/ports"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConcurrentSync_SameTupleAppliesOnce fires many concurrent submissions
// of the SAME signed tuple and verifies the nonce arbiter admits exactly one.
// Every other submission must read back as DUPLICATE, and the payee balance
// must be credited exactly once regardless of interleaving.
func TestConcurrentSync_SameTupleAppliesOnce(t *testing.T) {
	app := newTestApp(t)

	payerOwner := uuid.New()
	payerToken := app.token(t, payerOwner, "dev-payer")
	primary := app.provision(t, payerToken, "PRIMARY", 0, "")
	payerOffline := app.provision(t, payerToken, "OFFLINE", 200000, "payer-pass")
	app.walletRepo.setBalance(primary.wallet.ID, 500000)
	resp, _ := app.post(t, payerToken, "/api/v1/wallets/preload", map[string]interface{}{
		"from_wallet_id": primary.wallet.ID.String(),
		"to_wallet_id":   payerOffline.wallet.ID.String(),
		"amount":         100000,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	payerOffline.wallet.Balance = 100000

	payeeOwner := uuid.New()
	payeeToken := app.token(t, payeeOwner, "dev-payee")
	payeeOffline := app.provision(t, payeeToken, "OFFLINE", 50000, "payee-pass")

	payerEngine, _ := app.deviceWithWallet(t, payerOffline, "payer-pass", "dev-payer", "Payer", 0)
	payeeEngine, _ := app.deviceWithWallet(t, payeeOffline, "payee-pass", "dev-payee", "Payee", 0)

	identityPayload, _, err := payeeEngine.IssueIdentity()
	require.NoError(t, err)
	draft, err := payerEngine.NewDraft(identityPayload, 7500, "split lunch")
	require.NoError(t, err)
	payment, err := payerEngine.SignAndCommit(draft)
	require.NoError(t, err)

	rawBody, err := json.Marshal(map[string]interface{}{
		"batch": []ports.SubmissionTuple{{
			EncodedPayload: payment.Encoded,
			Receipt:        payment.Receipt,
		}},
	})
	require.NoError(t, err)

	concurrency := 20

	var wg sync.WaitGroup
	var appliedCount atomic.Int64
	var duplicateCount atomic.Int64
	var otherCount atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			req, err := http.NewRequest(http.MethodPost, app.server.URL+"/api/v1/sync", bytes.NewReader(rawBody))
			if err != nil {
				otherCount.Add(1)
				return
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+payerToken)

			r, err := http.DefaultClient.Do(req)
			if err != nil {
				otherCount.Add(1)
				return
			}
			var envelope struct {
				Data struct {
					Results []struct {
						Outcome string `json:"outcome"`
					} `json:"results"`
				} `json:"data"`
			}
			decodeErr := json.NewDecoder(r.Body).Decode(&envelope)
			r.Body.Close()
			if r.StatusCode != http.StatusOK || decodeErr != nil || len(envelope.Data.Results) != 1 {
				otherCount.Add(1)
				return
			}
			switch envelope.Data.Results[0].Outcome {
			case "APPLIED":
				appliedCount.Add(1)
			case "DUPLICATE":
				duplicateCount.Add(1)
			default:
				otherCount.Add(1)
			}
		}()
	}

	wg.Wait()

	t.Logf("concurrent sync: %d applied, %d duplicate, %d other (out of %d)",
		appliedCount.Load(), duplicateCount.Load(), otherCount.Load(), concurrency)

	assert.Equal(t, int64(1), appliedCount.Load(), "exactly one submission may apply")
	assert.Equal(t, int64(concurrency-1), duplicateCount.Load(), "losers must read back as DUPLICATE")
	assert.Equal(t, int64(0), otherCount.Load())

	// Credited once: 0 + 7500, not N * 7500.
	resp, body := app.get(t, payeeToken, "/api/v1/wallets/"+payeeOffline.wallet.ID.String())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	payeeBalance := body["data"].(map[string]interface{})["balance"].(float64)
	assert.Equal(t, float64(7500), payeeBalance)

	resp, body = app.get(t, payerToken, "/api/v1/wallets/"+payerOffline.wallet.ID.String())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	payerBalance := body["data"].(map[string]interface{})["balance"].(float64)
	assert.Equal(t, float64(92500), payerBalance)
}

// TestConcurrentSync_DistinctTuplesAllApply submits distinct payments from the
// same payer concurrently. All carry fresh nonces, so all must apply, and the
// authoritative payer balance must drop by exactly the sum of the amounts.
func TestConcurrentSync_DistinctTuplesAllApply(t *testing.T) {
	app := newTestApp(t)

	payerOwner := uuid.New()
	payerToken := app.token(t, payerOwner, "dev-payer")
	primary := app.provision(t, payerToken, "PRIMARY", 0, "")
	payerOffline := app.provision(t, payerToken, "OFFLINE", 200000, "payer-pass")
	app.walletRepo.setBalance(primary.wallet.ID, 500000)
	resp, _ := app.post(t, payerToken, "/api/v1/wallets/preload", map[string]interface{}{
		"from_wallet_id": primary.wallet.ID.String(),
		"to_wallet_id":   payerOffline.wallet.ID.String(),
		"amount":         100000,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	payerOffline.wallet.Balance = 100000

	payeeOwner := uuid.New()
	payeeToken := app.token(t, payeeOwner, "dev-payee")
	payeeOffline := app.provision(t, payeeToken, "OFFLINE", 500000, "payee-pass")

	payerEngine, _ := app.deviceWithWallet(t, payerOffline, "payer-pass", "dev-payer", "Payer", 0)
	payeeEngine, _ := app.deviceWithWallet(t, payeeOffline, "payee-pass", "dev-payee", "Payee", 0)

	identityPayload, _, err := payeeEngine.IssueIdentity()
	require.NoError(t, err)

	count := 10
	amount := int64(1000)
	bodies := make([][]byte, count)
	for i := 0; i < count; i++ {
		draft, err := payerEngine.NewDraft(identityPayload, amount, "")
		require.NoError(t, err)
		payment, err := payerEngine.SignAndCommit(draft)
		require.NoError(t, err)
		bodies[i], err = json.Marshal(map[string]interface{}{
			"batch": []ports.SubmissionTuple{{
				EncodedPayload: payment.Encoded,
				Receipt:        payment.Receipt,
			}},
		})
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	var appliedCount atomic.Int64

	for i := 0; i < count; i++ {
		wg.Add(1)
		go func(raw []byte) {
			defer wg.Done()

			req, err := http.NewRequest(http.MethodPost, app.server.URL+"/api/v1/sync", bytes.NewReader(raw))
			if err != nil {
				return
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+payerToken)

			r, err := http.DefaultClient.Do(req)
			if err != nil {
				return
			}
			var envelope struct {
				Data struct {
					Results []struct {
						Outcome string `json:"outcome"`
					} `json:"results"`
				} `json:"data"`
			}
			decodeErr := json.NewDecoder(r.Body).Decode(&envelope)
			r.Body.Close()
			if r.StatusCode == http.StatusOK && decodeErr == nil &&
				len(envelope.Data.Results) == 1 && envelope.Data.Results[0].Outcome == "APPLIED" {
				appliedCount.Add(1)
			}
		}(bodies[i])
	}

	wg.Wait()

	assert.Equal(t, int64(count), appliedCount.Load(), "every distinct nonce must apply")

	resp, body := app.get(t, payerToken, "/api/v1/wallets/"+payerOffline.wallet.ID.String())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	payerBalance := body["data"].(map[string]interface{})["balance"].(float64)
	assert.Equal(t, float64(100000-int64(count)*amount), payerBalance)

	resp, body = app.get(t, payeeToken, "/api/v1/wallets/"+payeeOffline.wallet.ID.String())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	payeeBalance := body["data"].(map[string]interface{})["balance"].(float64)
	assert.Equal(t, float64(int64(count)*amount), payeeBalance)
}
