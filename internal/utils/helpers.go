package utils

import (
	"errors"
	"net/url"
	"strings"
)

// ValidateS3BucketName checks if the provided S3 bucket name is valid according to AWS naming conventions.
func ValidateS3BucketName(bucketName string) error {
	if len(bucketName) < 3 || len(bucketName) > 63 {
		return errors.New("bucket name must be between 3 and 63 characters")
	}
	if strings.Contains(bucketName, " ") {
		return errors.New("bucket name cannot contain spaces")
	}
	if !isDNSCompatible(bucketName) {
		return errors.New("bucket name must be DNS compliant")
	}
	return nil
}

// isDNSCompatible checks if the bucket name is DNS compliant.
func isDNSCompatible(name string) bool {
	// Bucket names must be lowercase and can contain only letters, numbers, and hyphens.
	for _, char := range name {
		if !(char >= 'a' && char <= 'z') && !(char >= '0' && char <= '9') && char != '-' {
			return false
		}
	}
	return true
}

// ValidateEndpoint accepts "host[:port]" or an http(s) URL.
func ValidateEndpoint(endpoint string) error {
	if strings.TrimSpace(endpoint) == "" {
		return errors.New("endpoint is required")
	}
	if !strings.Contains(endpoint, "://") {
		endpoint = "https://" + endpoint
	}
	parsedURL, err := url.Parse(endpoint)
	if err != nil {
		return err
	}
	if parsedURL.Scheme != "https" && parsedURL.Scheme != "http" {
		return errors.New("endpoint must use http or https")
	}
	if parsedURL.Host == "" {
		return errors.New("endpoint has no host")
	}
	return nil
}

// ValidateMapURL checks the prefix map links are built from.
func ValidateMapURL(rawURL string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	if parsedURL.Scheme != "https" && parsedURL.Scheme != "http" {
		return errors.New("map URL must use http or https")
	}
	return nil
}
