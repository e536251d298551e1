package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/filswan/go-mcs-sdk/mcs/api/bucket"
	"github.com/filswan/go-mcs-sdk/mcs/api/common/logs"
	"github.com/filswan/go-mcs-sdk/mcs/api/user"
	"github.com/gpumesh/go-compute-router/conf"
	"github.com/gpumesh/go-compute-router/internal/models"
)

// TraceUploader is the external trace-storage boundary: persist a validated
// reasoning trace, get a content hash back. Failures are the orchestrator's
// cue to degrade to a local fallback reference.
type TraceUploader interface {
	Upload(trace *models.ReasoningTrace) (string, error)
	Initialized() bool
}

var storage *StorageService
var once sync.Once

type StorageService struct {
	McsApiKey      string
	McsAccessToken string
	NetWork        string
	BucketName     string
	CachePath      string
}

func NewStorageService() *StorageService {
	once.Do(func() {
		cfg := conf.GetConfig()
		storage = &StorageService{
			McsApiKey:      cfg.MCS.ApiKey,
			McsAccessToken: cfg.MCS.AccessToken,
			NetWork:        cfg.MCS.Network,
			BucketName:     cfg.MCS.BucketName,
			CachePath:      cfg.MCS.FileCachePath,
		}
	})
	return storage
}

func (s *StorageService) Initialized() bool {
	return s != nil && s.McsApiKey != "" && s.BucketName != ""
}

// Upload serializes the trace to the local cache dir, pushes it to the MCS
// bucket and returns the payload cid. The trace must already have passed
// validation; this method never re-validates.
func (s *StorageService) Upload(trace *models.ReasoningTrace) (string, error) {
	objectName := fmt.Sprintf("traces/%s.json", trace.JobUUID)

	data, err := trace.Marshal()
	if err != nil {
		return "", fmt.Errorf("failed marshal reasoning trace, error: %w", err)
	}

	if err := os.MkdirAll(filepath.Join(s.CachePath, "traces"), 0755); err != nil {
		return "", fmt.Errorf("failed create trace cache dir, error: %w", err)
	}
	filePath := filepath.Join(s.CachePath, objectName)
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed write trace file, path: %s, error: %w", filePath, err)
	}

	logs.GetLogger().Infof("uploading trace to bucket, objectName: %s, filePath: %s", objectName, filePath)
	mcsClient, err := user.LoginByApikey(s.McsApiKey, s.McsAccessToken, s.NetWork)
	if err != nil {
		logs.GetLogger().Errorf("Failed creating mcsClient, error: %v", err)
		return "", err
	}
	bucketClient := bucket.GetBucketClient(*mcsClient)

	file, err := bucketClient.GetFile(s.BucketName, objectName)
	if err != nil && !strings.Contains(err.Error(), "record not found") {
		logs.GetLogger().Errorf("Failed get file from bucket, error: %v", err)
		return "", err
	}
	if file != nil {
		if err = bucketClient.DeleteFile(s.BucketName, objectName); err != nil {
			logs.GetLogger().Errorf("Failed delete file from bucket, error: %v", err)
			return "", err
		}
	}

	if err := bucketClient.UploadFile(s.BucketName, objectName, filePath, true); err != nil {
		logs.GetLogger().Errorf("Failed upload trace to bucket, error: %v", err)
		return "", err
	}

	mcsOssFile, err := bucketClient.GetFile(s.BucketName, objectName)
	if err != nil {
		logs.GetLogger().Errorf("Failed get file from bucket, error: %v", err)
		return "", err
	}
	if mcsOssFile.PayloadCid == "" {
		return "", fmt.Errorf("bucket returned empty payload cid for %s", objectName)
	}
	return mcsOssFile.PayloadCid, nil
}
