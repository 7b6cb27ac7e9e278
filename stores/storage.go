package stores

import (
	"diary-server/core"
	"diary-server/stores/filesystem"
	"diary-server/stores/memory"
	"diary-server/stores/sqlite"
	"os"

	"github.com/sirupsen/logrus"
)

func GetStore() core.Store {
	storageType := os.Getenv("STORAGE_TYPE")
	var store core.Store

	storageField := logrus.Fields{
		"storageType": storageType,
	}

	switch storageType {
	case "filesystem":
		basePath := os.Getenv("LOCAL_STORAGE_PATH")
		storageField["basePath"] = basePath
		store = filesystem.NewStore(basePath)
	case "sqlite":
		dataSourceName := os.Getenv("DATA_SOURCE_NAME")
		storageField["dataSourceName"] = dataSourceName
		store = sqlite.NewStore(dataSourceName)
	default:
		store = memory.NewStore()
		storageField["storageType"] = "in-memory"
	}
	logrus.WithFields(storageField).Info("Use storage")
	return store
}
