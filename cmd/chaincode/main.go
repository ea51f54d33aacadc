package main

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"

	"github.com/noah-isme/academic-ledger/internal/chaincode"
	"github.com/noah-isme/academic-ledger/internal/service"
	"github.com/noah-isme/academic-ledger/pkg/config"
	"github.com/noah-isme/academic-ledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	handlers := service.NewHandlers(cfg.Organizations, cfg.Verification.BaseURL, validator.New(), logr)
	contract := chaincode.New(cfg.Ledger.ChaincodeName, handlers, logr)

	cc, err := contractapi.NewChaincode(contract)
	if err != nil {
		logr.Sugar().Fatalw("failed to create chaincode", "error", err)
	}
	cc.Info.Title = cfg.Ledger.ChaincodeName
	cc.Info.Version = "1.0.0"

	if cfg.Ledger.ChaincodeAddress == "" {
		logr.Sugar().Infow("chaincode starting", "name", cfg.Ledger.ChaincodeName)
		if err := cc.Start(); err != nil {
			logr.Sugar().Fatalw("chaincode failed", "error", err)
		}
		return
	}

	server := &shim.ChaincodeServer{
		CCID:     cfg.Ledger.ChaincodeID,
		Address:  cfg.Ledger.ChaincodeAddress,
		CC:       cc,
		TLSProps: shim.TLSProperties{Disabled: true},
	}
	logr.Sugar().Infow("chaincode server starting", "address", server.Address, "ccid", server.CCID)
	if err := server.Start(); err != nil {
		logr.Sugar().Fatalw("chaincode server failed", "error", err)
	}
}
