package tilepack

import "testing"

func TestParseS3URL(t *testing.T) {
	bucket, key, err := ParseS3URL("s3://tiles-bucket/exports/city.db")
	if err != nil {
		t.Fatal(err)
	}
	if bucket != "tiles-bucket" || key != "exports/city.db" {
		t.Errorf("ParseS3URL() = %q, %q", bucket, key)
	}

	for _, raw := range []string{
		"https://tiles-bucket/city.db",
		"s3://tiles-bucket",
		"s3://tiles-bucket/",
		"s3:///city.db",
		"::",
	} {
		if _, _, err := ParseS3URL(raw); err == nil {
			t.Errorf("ParseS3URL(%q) should fail", raw)
		}
	}
}
