package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/colinmarc/hdfs/v2"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const hdfsRoot = "/homenest/listings"

// FileStorage persists listing images on HDFS, one directory per listing.
type FileStorage struct {
	client *hdfs.Client
	logger *logrus.Logger
	tracer trace.Tracer
}

func New(hdfsURI string, logger *logrus.Logger, tracer trace.Tracer) (*FileStorage, error) {
	client, err := hdfs.New(hdfsURI)
	if err != nil {
		logger.Errorf("FileStorage.New : %s", err)
		return nil, err
	}

	return &FileStorage{
		client: client,
		logger: logger,
		tracer: tracer,
	}, nil
}

func (fs *FileStorage) Close() {
	fs.client.Close()
}

func (fs *FileStorage) CreateRoot() error {
	err := fs.client.MkdirAll(hdfsRoot, 0644)
	if err != nil {
		fs.logger.Errorf("FileStorage.CreateRoot : %s", err)
		return err
	}
	return nil
}

func (fs *FileStorage) SaveListingImage(ctx context.Context, listingID, imageName string, content []byte) error {
	_, span := fs.tracer.Start(ctx, "FileStorage.SaveListingImage")
	defer span.End()

	folderPath := path.Join(hdfsRoot, listingID)
	imagePath := path.Join(folderPath, imageName)

	if err := fs.client.MkdirAll(folderPath, 0644); err != nil {
		span.SetStatus(codes.Error, err.Error())
		fs.logger.Errorf("FileStorage.SaveListingImage : creating directory %s: %s", folderPath, err)
		return err
	}

	file, err := fs.client.Create(imagePath)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		fs.logger.Errorf("FileStorage.SaveListingImage : creating file %s: %s", imagePath, err)
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			span.SetStatus(codes.Error, closeErr.Error())
			fs.logger.Errorf("FileStorage.SaveListingImage : closing file: %s", closeErr)
		}
	}()

	if _, err := file.Write(content); err != nil {
		span.SetStatus(codes.Error, err.Error())
		fs.logger.Errorf("FileStorage.SaveListingImage : writing content: %s", err)
		return err
	}

	return nil
}

func (fs *FileStorage) GetListingImages(ctx context.Context, listingID string) ([]string, error) {
	_, span := fs.tracer.Start(ctx, "FileStorage.GetListingImages")
	defer span.End()

	folderPath := path.Join(hdfsRoot, listingID)
	var imageNames []string

	callbackFunc := func(filePath string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			imageNames = append(imageNames, path.Base(filePath))
		}
		return nil
	}

	if err := fs.client.Walk(folderPath, callbackFunc); err != nil {
		span.SetStatus(codes.Error, err.Error())
		fs.logger.Errorf("FileStorage.GetListingImages : %s", err)
		return nil, err
	}

	return imageNames, nil
}

func (fs *FileStorage) GetImageContent(ctx context.Context, listingID, imageName string) ([]byte, error) {
	_, span := fs.tracer.Start(ctx, "FileStorage.GetImageContent")
	defer span.End()

	fullPath := path.Join(hdfsRoot, listingID, imageName)

	file, err := fs.client.Open(fullPath)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("error opening file: %v", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("error reading file: %v", err)
	}

	return content, nil
}

func (fs *FileStorage) DeleteListingImages(ctx context.Context, listingID string) error {
	_, span := fs.tracer.Start(ctx, "FileStorage.DeleteListingImages")
	defer span.End()

	folderPath := path.Join(hdfsRoot, listingID)
	if err := fs.client.RemoveAll(folderPath); err != nil {
		span.SetStatus(codes.Error, err.Error())
		fs.logger.Errorf("FileStorage.DeleteListingImages : %s", err)
		return err
	}
	return nil
}
