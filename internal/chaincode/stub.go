package chaincode

import (
	"errors"
	"fmt"
	"time"

	"github.com/hyperledger/fabric-chaincode-go/pkg/cid"
	"github.com/hyperledger/fabric-chaincode-go/shim"

	"github.com/noah-isme/academic-ledger/internal/ledger"
)

// peerTransaction presents a Fabric stub as a ledger transaction. The peer
// already buffers writes and validates the read-set at commit, so every call
// is a direct pass-through.
type peerTransaction struct {
	stub     shim.ChaincodeStubInterface
	identity ledger.Identity
}

// NewTransaction adapts the stub and client identity of one chaincode
// invocation.
func NewTransaction(stub shim.ChaincodeStubInterface, client cid.ClientIdentity) ledger.Transaction {
	identity := ledger.Anonymous
	if client != nil {
		identity = clientIdentity{client: client}
	}
	return &peerTransaction{stub: stub, identity: identity}
}

func (t *peerTransaction) GetState(key string) ([]byte, error) {
	return t.stub.GetState(key)
}

func (t *peerTransaction) PutState(key string, value []byte) error {
	return t.stub.PutState(key, value)
}

func (t *peerTransaction) GetStateByRange(startKey, endKey string) (ledger.Iterator, error) {
	it, err := t.stub.GetStateByRange(startKey, endKey)
	if err != nil {
		return nil, err
	}
	return &stateIterator{it: it}, nil
}

func (t *peerTransaction) GetStateByPartialCompositeKey(objectType string, attributes []string) (ledger.Iterator, error) {
	it, err := t.stub.GetStateByPartialCompositeKey(objectType, attributes)
	if err != nil {
		return nil, err
	}
	return &stateIterator{it: it}, nil
}

func (t *peerTransaction) CreateCompositeKey(objectType string, attributes []string) (string, error) {
	return t.stub.CreateCompositeKey(objectType, attributes)
}

func (t *peerTransaction) SplitCompositeKey(compositeKey string) (string, []string, error) {
	return t.stub.SplitCompositeKey(compositeKey)
}

func (t *peerTransaction) TxID() string {
	return t.stub.GetTxID()
}

// Timestamp is the client-assigned proposal time, identical on every
// endorsing peer.
func (t *peerTransaction) Timestamp() (time.Time, error) {
	ts, err := t.stub.GetTxTimestamp()
	if err != nil {
		return time.Time{}, fmt.Errorf("read transaction timestamp: %w", err)
	}
	if ts == nil {
		return time.Time{}, errors.New("transaction timestamp not set")
	}
	return ts.AsTime().UTC(), nil
}

func (t *peerTransaction) Identity() ledger.Identity {
	return t.identity
}

type clientIdentity struct {
	client cid.ClientIdentity
}

func (c clientIdentity) OrganizationID() (string, error) {
	msp, err := c.client.GetMSPID()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ledger.ErrNoIdentity, err)
	}
	if msp == "" {
		return "", ledger.ErrNoIdentity
	}
	return msp, nil
}

func (c clientIdentity) ClientID() (string, error) {
	id, err := c.client.GetID()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ledger.ErrNoIdentity, err)
	}
	return id, nil
}

type stateIterator struct {
	it shim.StateQueryIteratorInterface
}

func (s *stateIterator) HasNext() bool {
	return s.it.HasNext()
}

func (s *stateIterator) Next() (*ledger.KV, error) {
	kv, err := s.it.Next()
	if err != nil {
		return nil, err
	}
	return &ledger.KV{Key: kv.Key, Value: kv.Value}, nil
}

func (s *stateIterator) Close() error {
	return s.it.Close()
}
