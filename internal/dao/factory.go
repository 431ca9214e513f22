// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of rowscope

package dao

import (
	"github.com/rowscope/rowscope/internal/aws"
)

// AWSFactory implements the Factory interface using an APIClient.
type AWSFactory struct {
	client aws.Connection
}

// NewFactory creates a new AWSFactory with the given client.
func NewFactory(client aws.Connection) *AWSFactory {
	return &AWSFactory{client: client}
}

// Client returns the AWS connection.
func (f *AWSFactory) Client() aws.Connection {
	return f.client
}

// Profile returns the current AWS profile.
func (f *AWSFactory) Profile() string {
	if f.client == nil {
		return ""
	}
	return f.client.ActiveProfile()
}

// Region returns the current AWS region.
func (f *AWSFactory) Region() string {
	if f.client == nil {
		return aws.DefaultRegion
	}
	return f.client.ActiveRegion()
}
