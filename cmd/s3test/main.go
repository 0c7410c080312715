package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/tendant/content-repository/pkg/contentrepo"
	s3storage "github.com/tendant/content-repository/pkg/contentrepo/storage/s3"
)

func main() {
	// Pick up AWS_* credentials from a local .env file if present
	_ = godotenv.Load()

	region := flag.String("region", "us-east-1", "AWS region")
	bucket := flag.String("bucket", "", "S3 bucket name")
	accessKey := flag.String("access-key", "", "AWS access key ID")
	secretKey := flag.String("secret-key", "", "AWS secret access key")
	endpoint := flag.String("endpoint", "", "Custom S3 endpoint (for MinIO, LocalStack, etc.)")
	usePathStyle := flag.Bool("use-path-style", false, "Use path-style addressing")
	enableSSE := flag.Bool("enable-sse", false, "Enable server-side encryption")
	sseAlgorithm := flag.String("sse-algorithm", "AES256", "SSE algorithm (AES256 or aws:kms)")
	sseKMSKeyID := flag.String("sse-kms-key-id", "", "KMS key ID for aws:kms algorithm")
	createBucket := flag.Bool("create-bucket", false, "Create bucket if it doesn't exist")

	command := flag.String("command", "help", "Command to execute: upload, download, delete, roundtrip, help")
	tenant := flag.String("tenant", "default", "Tenant whose namespace the object lives in")
	objectPath := flag.String("path", "", "Content path inside the namespace")
	filePath := flag.String("file", "", "File path for upload/download")

	useMinio := flag.Bool("use-minio", false, "Use MinIO defaults (sets endpoint, path-style, etc.)")
	minioEndpoint := flag.String("minio-endpoint", "http://localhost:9000", "MinIO server endpoint")

	flag.Parse()

	if *useMinio {
		*endpoint = *minioEndpoint
		*usePathStyle = true
		*createBucket = true
		if *accessKey == "" {
			*accessKey = "minioadmin"
		}
		if *secretKey == "" {
			*secretKey = "minioadmin"
		}
	}

	cmd := strings.ToLower(*command)
	if cmd == "help" || cmd == "" {
		printHelp()
		return
	}

	if *bucket == "" {
		log.Fatal("Bucket name is required")
	}
	if *accessKey == "" {
		*accessKey = os.Getenv("AWS_ACCESS_KEY_ID")
	}
	if *secretKey == "" {
		*secretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	}

	namespace := contentrepo.Namespace(*tenant)
	if namespace == "" {
		log.Fatal("Tenant must not be blank")
	}

	config := s3storage.Config{
		Region:                 *region,
		Bucket:                 *bucket,
		AccessKeyID:            *accessKey,
		SecretAccessKey:        *secretKey,
		Endpoint:               *endpoint,
		UsePathStyle:           *usePathStyle,
		EnableSSE:              *enableSSE,
		SSEAlgorithm:           *sseAlgorithm,
		SSEKMSKeyID:            *sseKMSKeyID,
		CreateBucketIfNotExist: *createBucket,
	}

	fmt.Println("Initializing S3 backend with the following configuration:")
	fmt.Printf("  Region: %s\n", config.Region)
	fmt.Printf("  Bucket: %s\n", config.Bucket)
	fmt.Printf("  Endpoint: %s\n", config.Endpoint)
	fmt.Printf("  Use Path Style: %v\n", config.UsePathStyle)
	fmt.Printf("  Create Bucket If Not Exist: %v\n", config.CreateBucketIfNotExist)
	fmt.Printf("  Server-side Encryption: %v\n", config.EnableSSE)
	if config.EnableSSE {
		fmt.Printf("  SSE Algorithm: %s\n", config.SSEAlgorithm)
	}
	fmt.Printf("  Namespace: %s\n\n", namespace)

	ctx := context.Background()
	backend, err := s3storage.New(ctx, config)
	if err != nil {
		log.Fatalf("Failed to initialize S3 backend: %v", err)
	}

	switch cmd {
	case "upload":
		requirePath(*objectPath, *filePath, "upload")

		file, err := os.Open(*filePath)
		if err != nil {
			log.Fatalf("Failed to open file: %v", err)
		}
		defer file.Close()

		fmt.Printf("Uploading %s to %s...\n", *filePath, *objectPath)
		start := time.Now()
		if err := backend.Write(ctx, namespace, *objectPath, file); err != nil {
			log.Fatalf("Upload failed: %v", err)
		}
		fmt.Printf("Upload successful (took %v)\n", time.Since(start))

	case "download":
		requirePath(*objectPath, *filePath, "download")

		fmt.Printf("Downloading %s to %s...\n", *objectPath, *filePath)
		start := time.Now()
		reader, err := backend.Read(ctx, namespace, *objectPath)
		if err != nil {
			log.Fatalf("Download failed: %v", err)
		}
		defer reader.Close()

		file, err := os.Create(*filePath)
		if err != nil {
			log.Fatalf("Failed to create file: %v", err)
		}
		defer file.Close()

		n, err := io.Copy(file, reader)
		if err != nil {
			log.Fatalf("Failed to write file: %v", err)
		}
		fmt.Printf("Download successful: %d bytes (took %v)\n", n, time.Since(start))

	case "delete":
		requirePath(*objectPath, "-", "delete")

		fmt.Printf("Deleting %s...\n", *objectPath)
		start := time.Now()
		if err := backend.Delete(ctx, namespace, *objectPath); err != nil {
			if contentrepo.IsNotFound(err) {
				log.Fatalf("Nothing to delete at %s", *objectPath)
			}
			log.Fatalf("Delete failed: %v", err)
		}
		fmt.Printf("Delete successful (took %v)\n", time.Since(start))

	case "roundtrip":
		if err := roundTrip(ctx, backend, namespace); err != nil {
			log.Fatalf("Round trip failed: %v", err)
		}
		fmt.Println("Round trip successful")

	default:
		log.Fatalf("Unknown command: %s", *command)
	}
}

// roundTrip writes, reads back and deletes a probe object, then checks the
// object is gone.
func roundTrip(ctx context.Context, backend contentrepo.StorageBackend, namespace string) error {
	path := fmt.Sprintf("documents/s3test/0/probe-%d", time.Now().UnixNano())
	payload := fmt.Sprintf("content repository probe %s", time.Now().Format(time.RFC3339Nano))

	if err := backend.Write(ctx, namespace, path, strings.NewReader(payload)); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	fmt.Printf("  wrote %s\n", path)

	reader, err := backend.Read(ctx, namespace, path)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	data, err := io.ReadAll(reader)
	reader.Close()
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	if string(data) != payload {
		return fmt.Errorf("read returned %d bytes that differ from the %d bytes written", len(data), len(payload))
	}
	fmt.Printf("  read back %d bytes\n", len(data))

	if err := backend.Delete(ctx, namespace, path); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	if _, err := backend.Read(ctx, namespace, path); !contentrepo.IsNotFound(err) {
		return fmt.Errorf("object still readable after delete: %v", err)
	}
	fmt.Println("  deleted")
	return nil
}

func requirePath(objectPath, filePath, command string) {
	if objectPath == "" || filePath == "" {
		log.Fatalf("Content path and file path are required for %s", command)
	}
}

func printHelp() {
	fmt.Println("S3 Backend Test Application")
	fmt.Println("\nCommands:")
	fmt.Println("  upload      Upload a file into the tenant namespace")
	fmt.Println("  download    Download content to a local file")
	fmt.Println("  delete      Delete content from the tenant namespace")
	fmt.Println("  roundtrip   Write, read and delete a probe object")
	fmt.Println("  help        Show this help message")
	fmt.Println("\nFlags:")
	flag.PrintDefaults()
	fmt.Println("\nExamples:")
	fmt.Println("  Upload a document to AWS S3:")
	fmt.Println("    s3test -bucket my-bucket -command upload -path documents/clients/1/abc -file ./statement.pdf")
	fmt.Println("\n  Check a local MinIO:")
	fmt.Println("    s3test -use-minio -bucket content -command roundtrip")
}
